// cartctl drives the storefront cart from a terminal. The guest cart is kept
// in a local data directory, the way a browser keeps it in local storage;
// after login the account cart on the storefront API is used instead.
//
// Commands:
//
//	cartctl get
//	cartctl add -product ID [-qty N] [-pack SIZE [-pack-price P | -savings PCT]]
//	cartctl update -product ID -qty N [-pack SIZE | -unit]
//	cartctl remove -product ID [-pack SIZE | -unit]
//	cartctl clear
//	cartctl count
//	cartctl login -email ADDR [-password PW]
//	cartctl logout
//
// Examples:
//
//	cartctl -api https://shop.example/api add -product 64f1 -qty 2
//	cartctl add -product 64f2 -pack 3 -pack-price 270
//	cartctl login -email asha@example.com
//	N=$(cartctl count -q)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"storefront-cart/internal/cart"
	"storefront-cart/internal/model"
	"storefront-cart/internal/session"
)

// Global flags (apply to all commands)
var (
	apiURL  string
	dataDir string
	quiet   bool
	noColor bool
	verbose bool
)

func main() {
	global := flag.NewFlagSet("cartctl", flag.ExitOnError)
	global.StringVar(&apiURL, "api", envOr("STOREFRONT_API", "http://localhost:5000/api"), "Storefront API base URL")
	global.StringVar(&dataDir, "data", envOr("CARTCTL_DATA", defaultDataDir()), "Directory for the guest cart and session")
	global.BoolVar(&quiet, "q", false, "Quiet mode - only print the essential value")
	global.BoolVar(&noColor, "no-color", false, "Disable colored output")
	global.BoolVar(&verbose, "v", false, "Verbose - log gateway traffic")
	global.Usage = printUsage
	global.Parse(os.Args[1:])

	if noColor || os.Getenv("NO_COLOR") != "" {
		disableColors()
	}

	args := global.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cmd, rest := args[0], args[1:]
	commands := map[string]func(context.Context, []string) error{
		"get":    runGet,
		"add":    runAdd,
		"update": runUpdate,
		"remove": runRemove,
		"clear":  runClear,
		"count":  runCount,
		"login":  runLogin,
		"logout": runLogout,
	}

	switch cmd {
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	}
	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := run(ctx, rest); err != nil {
		cancel()
		fatal("%v", describeError(err))
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `cartctl - storefront cart from the terminal

Usage:
  cartctl [global options] <command> [options]

Global options:
  -api URL       Storefront API base URL (env STOREFRONT_API)
  -data DIR      Directory for the guest cart and session (env CARTCTL_DATA)
  -q             Quiet mode
  -no-color      Disable colored output
  -v             Log gateway traffic

Commands:
  get       Show the cart
  add       Add a product, optionally as a pack
  update    Set a line's quantity
  remove    Remove a product or one pack variant
  clear     Empty the cart
  count     Print the number of units in the cart
  login     Sign in and merge the guest cart into the account cart
  logout    Return to the guest cart

Run 'cartctl <command> -h' for command-specific options.
`)
}

// =============================================================================
// COMMANDS
// =============================================================================

func runGet(ctx context.Context, args []string) error {
	fs := newFlagSet("get", "")
	fs.Parse(args)

	return withCart(ctx, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.FetchCart(ctx)
	})
}

func runAdd(ctx context.Context, args []string) error {
	fs := newFlagSet("add", "-product ID [options]")
	var (
		productID string
		quantity  int
		packSize  int
		packPrice float64
		savings   float64
		label     string
	)
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&quantity, "qty", 1, "Quantity (ignored for packs)")
	fs.IntVar(&packSize, "pack", 0, "Buy as a pack of this size")
	fs.Float64Var(&packPrice, "pack-price", 0, "Pack price in major units")
	fs.Float64Var(&savings, "savings", 0, "Pack discount in percent (overrides -pack-price)")
	fs.StringVar(&label, "label", "", "Pack label")
	fs.Parse(args)

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	var pack *model.PackDescriptor
	if packSize > 0 {
		pack = &model.PackDescriptor{
			PackSize:       packSize,
			PackPrice:      model.FromMajor(packPrice),
			SavingsPercent: savings,
			Label:          label,
		}
	}

	return withCart(ctx, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		product, err := api().GetProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("looking up product %s: %w", productID, err)
		}
		return f.AddToCart(ctx, *product, quantity, pack)
	})
}

func runUpdate(ctx context.Context, args []string) error {
	fs := newFlagSet("update", "-product ID -qty N [-pack SIZE | -unit]")
	var (
		productID string
		quantity  int
		packSize  int
		unit      bool
	)
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&quantity, "qty", 0, "New quantity (required)")
	fs.IntVar(&packSize, "pack", 0, "Target the pack line of this size")
	fs.BoolVar(&unit, "unit", false, "Target the non-pack line")
	fs.Parse(args)

	if productID == "" || quantity == 0 {
		fs.Usage()
		os.Exit(1)
	}
	ref, err := lineRef(productID, packSize, unit)
	if err != nil {
		return err
	}

	return withCart(ctx, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.UpdateQuantity(ctx, ref, quantity)
	})
}

func runRemove(ctx context.Context, args []string) error {
	fs := newFlagSet("remove", "-product ID [-pack SIZE | -unit]")
	var (
		productID string
		packSize  int
		unit      bool
	)
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&packSize, "pack", 0, "Remove only the pack line of this size")
	fs.BoolVar(&unit, "unit", false, "Remove only the non-pack line")
	fs.Parse(args)

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}
	ref, err := lineRef(productID, packSize, unit)
	if err != nil {
		return err
	}

	return withCart(ctx, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.RemoveFromCart(ctx, ref)
	})
}

func runClear(ctx context.Context, args []string) error {
	fs := newFlagSet("clear", "")
	fs.Parse(args)

	return withCart(ctx, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.ClearCart(ctx)
	})
}

func runCount(ctx context.Context, args []string) error {
	fs := newFlagSet("count", "")
	fs.Parse(args)

	ctx, collector := cart.WithCollector(ctx)
	f, err := openFacade(ctx)
	if err != nil {
		return err
	}
	if _, err := f.FetchCart(ctx); err != nil {
		printMessages(collector.Messages())
		return err
	}

	if quiet {
		fmt.Println(f.CartCount())
		return nil
	}
	printMessages(collector.Messages())
	fmt.Printf("  Items: %s%d%s\n", colorCyan, f.CartCount(), colorReset)
	return nil
}

func runLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login", "-email ADDR [-password PW]")
	var email, password string
	fs.StringVar(&email, "email", "", "Account email (required)")
	fs.StringVar(&password, "password", os.Getenv("STOREFRONT_PASSWORD"), "Account password (env STOREFRONT_PASSWORD)")
	fs.Parse(args)

	if email == "" || password == "" {
		fs.Usage()
		os.Exit(1)
	}

	ctx, collector := cart.WithCollector(ctx)
	result, err := api().Login(ctx, email, password)
	if err != nil {
		return err
	}

	f, err := openFacade(ctx)
	if err != nil {
		return err
	}
	// Expiry comes from the token so later runs can drop a stale session.
	id := session.ParseIdentity(result.Identity.Token)
	id.Name = result.Identity.Name
	id.Email = result.Identity.Email
	if id.UserID == "" {
		id.UserID = result.Identity.UserID
	}

	report, err := f.SignIn(ctx, *id)
	if err != nil && !f.Identity().Same(id) {
		printMessages(collector.Messages())
		return err
	}
	if saveErr := saveSession(dataDir, f.Identity()); saveErr != nil {
		return saveErr
	}
	printMessages(collector.Messages())
	if err != nil {
		printWarning("Signed in, but the cart could not be refreshed: %v", describeError(err))
	}

	if quiet {
		return nil
	}
	name := result.Identity.Name
	if name == "" {
		name = email
	}
	printSuccess("Signed in as %s", name)
	printMergeReport(report)
	printCart(f.Cart())
	return nil
}

func runLogout(ctx context.Context, args []string) error {
	fs := newFlagSet("logout", "")
	fs.Parse(args)

	ctx, collector := cart.WithCollector(ctx)
	f, err := openFacade(ctx)
	if err != nil {
		return err
	}
	if err := clearSession(dataDir); err != nil {
		return err
	}
	c, err := f.SignOut(ctx)
	printMessages(collector.Messages())
	if err != nil {
		return err
	}

	printSuccess("Signed out")
	if !quiet {
		printCart(c)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cartctl %s %s\n\nOptions:\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// withCart runs op on the current facade and prints the resulting cart.
func withCart(ctx context.Context, op func(context.Context, *cart.Facade) (*model.Cart, error)) error {
	ctx, collector := cart.WithCollector(ctx)

	f, err := openFacade(ctx)
	if err != nil {
		return err
	}
	c, err := op(ctx, f)
	printMessages(collector.Messages())
	if err != nil {
		return err
	}

	if quiet {
		fmt.Println(c.Count())
		return nil
	}
	printCart(c)
	return nil
}

// lineRef builds the line reference for update and remove. Without -pack or
// -unit the whole product is targeted.
func lineRef(productID string, packSize int, unit bool) (cart.LineRef, error) {
	switch {
	case packSize < 0:
		return cart.LineRef{}, fmt.Errorf("-pack must be positive")
	case packSize > 0 && unit:
		return cart.LineRef{}, fmt.Errorf("-pack and -unit are mutually exclusive")
	case packSize > 0:
		return cart.RefLine(model.LineIdentity{ProductID: productID, IsPack: true, PackSize: packSize}), nil
	case unit:
		return cart.RefLine(model.LineIdentity{ProductID: productID}), nil
	default:
		return cart.Ref(productID), nil
	}
}

// describeError turns API errors into their user-facing message.
func describeError(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
