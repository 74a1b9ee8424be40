package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"domkit/pkg/dom"
	"domkit/pkg/resource"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file|url>",
		Short: "Load a page, run its scripts and print the resulting markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.loader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), page.Document.Root().Serialize())
			return nil
		},
	}
}

func newFireCmd(a *app) *cobra.Command {
	var selector, event string
	cmd := &cobra.Command{
		Use:   "fire <file|url>",
		Short: "Fire click, focus or blur at an element and print the resulting markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, el, err := a.locate(cmd, args[0], selector)
			if err != nil {
				return err
			}
			var fire func() error
			switch event {
			case "click":
				fire = el.Click
			case "focus":
				fire = el.Focus
			case "blur":
				fire = el.Blur
			default:
				return errors.Errorf("unsupported event %q (want click, focus or blur)", event)
			}
			if err := page.Engine.Run(cmd.Context(), fire); err != nil {
				return errors.Wrapf(err, "%s on %s", event, selector)
			}
			a.logger.Debug("fired", zap.String("event", event), zap.String("selector", selector))
			fmt.Fprintln(cmd.OutOrStdout(), page.Document.Root().Serialize())
			return nil
		},
	}
	cmd.Flags().StringVarP(&selector, "selector", "s", "", "CSS selector of the target element")
	cmd.Flags().StringVarP(&event, "event", "e", "click", "click, focus or blur")
	_ = cmd.MarkFlagRequired("selector")
	return cmd
}

func newStyleCmd(a *app) *cobra.Command {
	var selector string
	var computed bool
	cmd := &cobra.Command{
		Use:   "style <file|url>",
		Short: "Print an element's style declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, el, err := a.locate(cmd, args[0], selector)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if computed {
				style := page.Document.ComputedStyle(el)
				for _, name := range style.Names() {
					v, _ := style.Get(name)
					fmt.Fprintf(out, "%s: %s\n", name, v)
				}
				return nil
			}
			decl, err := el.Style()
			if err != nil {
				return err
			}
			for _, name := range decl.Properties() {
				line := name + ": " + decl.GetPropertyValue(name)
				if p := decl.GetPropertyPriority(name); p != "" {
					line += " !" + p
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&selector, "selector", "s", "", "CSS selector of the element")
	cmd.Flags().BoolVar(&computed, "computed", false, "print the cascaded style instead of the inline declaration")
	_ = cmd.MarkFlagRequired("selector")
	return cmd
}

// locate loads target and returns the first element matching selector.
func (a *app) locate(cmd *cobra.Command, target, selector string) (*resource.Page, *dom.Element, error) {
	page, err := a.loader().Load(cmd.Context(), target)
	if err != nil {
		return nil, nil, err
	}
	el, err := page.Document.QuerySelector(strings.TrimSpace(selector))
	if err != nil {
		return nil, nil, err
	}
	if el == nil {
		return nil, nil, errors.Wrapf(dom.ErrNotFound, "no element matches %q", selector)
	}
	return page, el, nil
}
