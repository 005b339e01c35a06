package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cakedelight/internal/apiclient"
	"cakedelight/internal/cart"
	"cakedelight/internal/checkout"
	"cakedelight/internal/domain/model"

	"github.com/juju/ansiterm"
	"github.com/juju/gnuflag"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

var errNotLoggedIn = errors.New("not logged in: run `cakecart login <email> <password>` first")

const usage = `usage: cakecart <command> [args]

commands:
  products [--q text] [--category c] [--sort new|price_asc|price_desc] [--page n] [--limit n]
  add <product-id>
  remove <product-id>
  qty <product-id> <quantity>
  clear
  show
  login <email> <password>
  checkout --name n --address a --city c --postal p [--email e] [--phone p] [--payment card|paypal|cash]
  orders
`

// app は1回の起動で使う部品
type app struct {
	store    *cart.Store
	slot     openedSlot
	client   *apiclient.Client
	checkout *checkout.Service
	out      io.Writer
	log      *zap.Logger
}

func newApp(s openedSlot, client *apiclient.Client, out io.Writer, log *zap.Logger) *app {
	store := cart.New(s.slot,
		cart.WithKey(s.key(cart.StorageKey)),
		cart.WithNotifier(printEvents(out)),
		cart.WithLogger(log),
	)

	//保存済みのトークンがあれば使う
	if tok, found, err := s.slot.Read(s.key(tokenKey)); err != nil {
		log.Warn("read token failed", zap.Error(err))
	} else if found {
		client.SetToken(string(tok))
	}

	return &app{
		store:    store,
		slot:     s,
		client:   client,
		checkout: checkout.NewService(store, client, log, checkout.WithPendingSlot(s.slot, s.key(checkout.PendingKey))),
		out:      out,
		log:      log,
	}
}

// printEvents はカートの通知を1行ずつ出す
func printEvents(w io.Writer) cart.NotifierFunc {
	return func(e cart.Event) {
		switch e.Kind {
		case cart.EventAdded:
			fmt.Fprintf(w, "%s added to cart\n", e.ProductName)
		case cart.EventIncremented:
			fmt.Fprintf(w, "Added another %s to your cart\n", e.ProductName)
		case cart.EventRemoved:
			fmt.Fprintf(w, "%s removed from cart\n", e.ProductName)
		case cart.EventCleared:
			fmt.Fprintln(w, "Cart cleared")
		}
	}
}

func (a *app) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "products":
		return a.products(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "remove":
		if len(rest) != 1 {
			return errUsage
		}
		a.store.RemoveFromCart(rest[0])
		return nil
	case "qty":
		return a.qty(rest)
	case "clear":
		a.store.ClearCart()
		return nil
	case "show":
		return a.show()
	case "login":
		return a.login(ctx, rest)
	case "checkout":
		return a.runCheckout(ctx, rest)
	case "orders":
		return a.orders(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func newFlagSet(name string) *gnuflag.FlagSet {
	return gnuflag.NewFlagSet(name, gnuflag.ContinueOnError)
}

func (a *app) products(ctx context.Context, args []string) error {
	var q apiclient.ProductQuery
	fs := newFlagSet("products")
	fs.StringVar(&q.Q, "q", "", "search text")
	fs.StringVar(&q.Category, "category", "", "category")
	fs.StringVar(&q.Sort, "sort", "", "new, price_asc or price_desc")
	fs.IntVar(&q.Page, "page", 0, "page")
	fs.IntVar(&q.Limit, "limit", 0, "items per page")
	if err := fs.Parse(true, args); err != nil {
		return errUsage
	}

	page, err := a.client.ListProducts(ctx, q)
	if err != nil {
		return err
	}

	tw := ansiterm.NewTabWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Stock)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d, %d of %d products\n", page.Page, len(page.Items), page.Total)
	return nil
}

// add はカタログから商品を取ってきてカートに入れる
func (a *app) add(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	p, err := a.client.GetProduct(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	a.store.AddToCart(p)
	return nil
}

func (a *app) qty(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("quantity must be a number: %q", args[1])
	}
	a.store.UpdateQuantity(args[0], n)
	return nil
}

func (a *app) show() error {
	lines := a.store.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty")
		return nil
	}

	tw := ansiterm.NewTabWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tLINE")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			l.Product.ID, l.Product.Name, l.Quantity, l.Product.Price.StringFixed(2), l.LineTotal().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%d items\n", a.store.TotalItems())
	writeSummary(a.out, checkout.Quote(a.store.Subtotal()))
	return nil
}

func writeSummary(w io.Writer, s checkout.Summary) {
	fmt.Fprintf(w, "Subtotal  %s\n", s.Subtotal.StringFixed(2))
	fmt.Fprintf(w, "Tax       %s\n", s.Tax.StringFixed(2))
	fmt.Fprintf(w, "Shipping  %s\n", s.Shipping.StringFixed(2))
	fmt.Fprintf(w, "Total     %s\n", s.Total.StringFixed(2))
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	res, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := a.slot.slot.Write(a.slot.key(tokenKey), []byte(res.Token.AccessToken)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintf(a.out, "Login successful: welcome back to CakeDelight, %s!\n", res.User.Email)
	return nil
}

func (a *app) runCheckout(ctx context.Context, args []string) error {
	var (
		addr    model.ShippingAddress
		payment string
	)
	fs := newFlagSet("checkout")
	fs.StringVar(&addr.Name, "name", "", "recipient name")
	fs.StringVar(&addr.Email, "email", "", "contact email")
	fs.StringVar(&addr.Line1, "address", "", "street address")
	fs.StringVar(&addr.City, "city", "", "city")
	fs.StringVar(&addr.PostalCode, "postal", "", "postal code")
	fs.StringVar(&addr.Phone, "phone", "", "phone")
	fs.StringVar(&payment, "payment", string(model.PaymentCard), "card, paypal or cash")
	if err := fs.Parse(true, args); err != nil {
		return errUsage
	}
	if a.client.Token() == "" {
		return errNotLoggedIn
	}

	r, err := a.checkout.Checkout(ctx, checkout.Input{
		Shipping:      addr,
		PaymentMethod: model.PaymentMethod(strings.ToLower(payment)),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Order placed: %s (%s)\n", r.Confirmation.OrderID, r.Confirmation.Status)
	writeSummary(a.out, r.Summary)
	return nil
}

func (a *app) orders(ctx context.Context) error {
	if a.client.Token() == "" {
		return errNotLoggedIn
	}
	orders, err := a.client.ListOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders yet")
		return nil
	}

	tw := ansiterm.NewTabWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tITEMS\tTOTAL\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			o.ID, o.Status, len(o.Items), o.TotalPrice.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
