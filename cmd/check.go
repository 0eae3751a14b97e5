package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/S1riyS/tree-server/internal/config"
	"github.com/S1riyS/tree-server/internal/service"
	"github.com/S1riyS/tree-server/internal/tree"
)

func runCheck(out io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if _, err := service.NewTypeLookup(cfg.Types); err != nil {
		return err
	}

	fmt.Fprintf(out, "marker: %s\n", cfg.Marker)
	printNode(out, "/", cfg.Tree.Root, 0)
	return nil
}

func printNode(out io.Writer, name string, n tree.Node, depth int) {
	indent := strings.Repeat("  ", depth)

	switch node := n.(type) {
	case *tree.Category:
		fmt.Fprintf(out, "%s%s\n", indent, color.CyanString(name))
		for _, key := range node.Keys() {
			child, _ := node.Get(key)
			printNode(out, key+"/", child, depth+1)
		}
	case tree.Root:
		fmt.Fprintf(out, "%s%s -> %s\n", indent, color.GreenString(name), string(node))
	}
}
