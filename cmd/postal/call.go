// CLAUDE:SUMMARY call subcommand: invokes a postal MCP tool on a running server over MCP-over-QUIC.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/touchstone-postal/pkg/mcpquic"
)

func cmdCall(args []string) {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8443", "server address (UDP)")
	tool := fs.String("tool", "parse_address", "MCP tool name")
	list := fs.Bool("list", false, "list the server's tools and exit")
	country := fs.String("country", "", "country for normalize_postcode")
	insecure := fs.Bool("insecure", true, "accept self-signed server certificates")
	timeout := fs.Duration("timeout", 30*time.Second, "overall timeout")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := mcpquic.NewClient(*addr, mcpquic.ClientTLSConfig(*insecure))
	if err := c.Connect(ctx); err != nil {
		fail("connect", err)
	}
	defer c.Close()

	if *list {
		res, err := c.ListTools(ctx)
		if err != nil {
			fail("list tools", err)
		}
		for _, t := range res.Tools {
			fmt.Printf("  %-20s  %s\n", t.Name, t.Description)
		}
		return
	}

	res, err := c.CallTool(ctx, *tool, toolArgs(*tool, strings.Join(fs.Args(), " "), *country))
	if err != nil {
		fail("call "+*tool, err)
	}
	fmt.Println(mcpquic.ResultText(res))
	if res.IsError {
		os.Exit(1)
	}
}

// toolArgs maps the positional input to the argument names each tool expects.
func toolArgs(tool, input, country string) map[string]any {
	if tool == "normalize_postcode" {
		args := map[string]any{"code": input}
		if country != "" {
			args["country"] = country
		}
		return args
	}
	return map[string]any{"address": input}
}
