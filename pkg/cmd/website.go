// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/framelab/framecheck/pkg/website"
)

type WebsiteOptions struct {
	ListenAddr string
}

func NewWebsiteOptions() *WebsiteOptions {
	return &WebsiteOptions{}
}

func NewWebsiteCmd(o *WebsiteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "website",
		Short: "Serve the schema playground API",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Server().Run() },
	}
	cmd.Flags().StringVar(&o.ListenAddr, "listen-addr", "localhost:8080", "Listen address")
	return cmd
}

func (o *WebsiteOptions) Server() *website.Server {
	return website.NewServer(website.ServerOpts{ListenAddr: o.ListenAddr})
}
