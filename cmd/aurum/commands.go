package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/clients"
	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/internal/services/workflow"
	"github.com/vadiminshakov/aurum/internal/setup"
)

var errUnknownCommand = errors.New("unknown command")

const historyPageSize = 20

func (a *app) run(ctx context.Context, command string, args []string) error {
	var err error
	switch command {
	case "login":
		err = a.login(ctx)
	case "logout":
		err = a.logout()
	case "rates":
		err = a.rates(ctx)
	case "buy", "sell":
		op, _ := domain.ParseOperation(command)
		err = a.placeOrder(ctx, op)
	case "history":
		filter := ""
		if len(args) > 0 {
			filter = args[0]
		}
		err = a.history(ctx, filter)
	case "pending":
		fmt.Println(setup.RenderPending(a.journal.Pending()))
	default:
		return errUnknownCommand
	}

	if err != nil && !errors.Is(err, huh.ErrUserAborted) {
		a.l.Debug("command failed", zap.String("command", command), zap.Error(err))
		fmt.Println(setup.RenderAlert(workflow.AlertFor(err)))
		return err
	}
	return nil
}

func (a *app) login(ctx context.Context) error {
	mobile, err := setup.AskMobile()
	if err != nil {
		return err
	}
	if err := a.backend.SendOTP(ctx, mobile); err != nil {
		return err
	}
	otp, err := setup.AskOTP(mobile)
	if err != nil {
		return err
	}

	user, token, err := a.backend.VerifyOTP(ctx, mobile, otp)
	if err != nil {
		return err
	}
	if err := a.session.Login(user, token); err != nil {
		return err
	}

	name := user.Name
	if name == "" {
		name = user.Mobile
	}
	fmt.Printf("Logged in as %s\n", name)
	return nil
}

func (a *app) logout() error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (a *app) rates(ctx context.Context) error {
	r, err := a.backend.GetRates(ctx)
	if err != nil {
		return err
	}
	fmt.Println(setup.RenderRate(r))
	return nil
}

func (a *app) history(ctx context.Context, filter string) error {
	if filter != "" {
		if _, ok := domain.ParseOperation(filter); !ok {
			return errors.Errorf("history filter must be buy or sell, got %q", filter)
		}
	}
	page, err := a.backend.ListHistory(ctx, clients.HistoryQuery{Type: filter, Limit: historyPageSize})
	if err != nil {
		return err
	}
	fmt.Println(setup.RenderHistory(page))
	return nil
}

func (a *app) placeOrder(ctx context.Context, op domain.Operation) error {
	if !a.session.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}

	snap, err := a.workflow.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Println(setup.RenderRate(snap.Rate))
	if op == domain.OperationSell {
		fmt.Println(setup.RenderHolding(snap.Holding))
	}

	in, err := setup.OrderForm(op, snap.Banks, snap.Selected, a.preview)
	if err != nil {
		return err
	}
	in, q, err := a.workflow.Check(in)
	if err != nil {
		return err
	}

	ok, err := setup.Confirm("Place this order?", setup.RenderQuote(q, in.Bank))
	if err != nil || !ok {
		return err
	}

	tx, err := a.workflow.Place(ctx, in)
	if err != nil {
		return err
	}

	if workflow.NeedsPayment(tx) {
		if tx, err = a.checkout(ctx, tx); err != nil {
			return err
		}
	}
	fmt.Println(setup.RenderTransaction(tx))

	return a.redirectToHistory(ctx)
}

func (a *app) checkout(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	c, err := a.workflow.Pay(ctx, tx)
	if err != nil {
		return tx, err
	}

	method, err := setup.CheckoutForm(a.gateway.MerchantName(), c)
	if err != nil || method == "" {
		c.Cancel()
	} else if err := c.Select(ctx, method); err != nil {
		c.Cancel()
		a.l.Warn("checkout select failed", zap.String("method", method), zap.Error(err))
	}
	return a.workflow.Complete(ctx, tx, c)
}

func (a *app) redirectToHistory(ctx context.Context) error {
	done := make(chan struct{})
	r := a.workflow.RedirectToHistory(func() { close(done) })
	defer r.Stop()

	fmt.Printf("Opening history in %s...\n", a.cfg.Order.RedirectDelay)
	select {
	case <-done:
	case <-ctx.Done():
		return nil
	}
	return a.history(ctx, "")
}

func (a *app) preview(in domain.OrderInput) string {
	q, err := a.workflow.Preview(in)
	if err != nil {
		return ""
	}
	if q.Calculated.IsZero() {
		return "Enter a value to see the estimate"
	}
	if in.Mode == domain.InputModeQuantity {
		return "≈ " + domain.FormatINR(q.Amount)
	}
	return "≈ " + domain.FormatGrams(q.Quantity)
}
