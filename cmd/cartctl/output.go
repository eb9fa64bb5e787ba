package main

import (
	"fmt"
	"os"

	"storefront-cart/internal/model"
	"storefront-cart/internal/reconcile"
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func printCart(c *model.Cart) {
	if c == nil || c.Empty() {
		fmt.Printf("  %sCart is empty%s\n", colorGray, colorReset)
		return
	}

	for _, item := range c.Items {
		name := item.Product.Name
		if name == "" {
			name = item.Product.ID
		}
		variant := ""
		if item.Pack != nil {
			variant = fmt.Sprintf(" %s[pack of %d]%s", colorYellow, item.Pack.PackSize, colorReset)
			if item.Pack.Label != "" {
				variant = fmt.Sprintf(" %s[%s]%s", colorYellow, item.Pack.Label, colorReset)
			}
		}
		fmt.Printf("  %s%-28s%s%s  x%-3d %10s\n",
			colorBold, name, colorReset, variant, item.Quantity, formatAmount(item.Total()))
	}
	fmt.Printf("  %sTotal: %s%s  (%d items)\n", colorGreen, formatAmount(c.TotalPrice), colorReset, c.Count())
}

func printMergeReport(r *reconcile.Report) {
	if r == nil {
		return
	}
	if r.Replayed > 0 {
		printInfo("Merged %d guest line(s) into your account cart", r.Replayed)
	}
	if r.Overlap > 0 {
		printInfo("%d of them were already in your account cart", r.Overlap)
	}
	for _, f := range r.Failed {
		printWarning("Could not add %s (x%d): %s", f.Name, f.Quantity, f.Message)
	}
	if r.Retained > 0 {
		printInfo("%d line(s) kept in the guest cart", r.Retained)
	}
	if r.CleanupError != "" {
		printWarning("Guest cart cleanup failed: %s", r.CleanupError)
	}
}

// printMessages prints cart notifications by severity. Success chatter is
// skipped in quiet mode; errors are left to the exit path.
func printMessages(msgs []model.Message) {
	for _, msg := range msgs {
		switch msg.Type {
		case "error":
			// reported by fatal
		case "warning":
			printWarning("%s", msg.Content)
		default:
			if !quiet {
				fmt.Printf("%s  ℹ %s%s\n", colorGray, msg.Content, colorReset)
			}
		}
	}
}

func formatAmount(minor int64) string {
	return "₹" + model.FormatAmount(minor)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
