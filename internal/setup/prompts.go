package setup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/internal/services/gateway"
)

// OrderForm asks for the input mode, the value with a live preview of its
// counterpart, and the bank account. The preselected bank is the default.
func OrderForm(op domain.Operation, banks []domain.BankAccount, selected *domain.BankAccount, preview func(domain.OrderInput) string) (domain.OrderInput, error) {
	var (
		mode   = domain.InputModeAmount
		raw    string
		bankID string
	)
	if selected != nil {
		bankID = selected.ID
	}
	current := func() domain.OrderInput {
		return domain.OrderInput{Operation: op, Mode: mode, RawValue: raw}
	}

	fields := []huh.Field{
		huh.NewSelect[domain.InputMode]().
			Title(fmt.Sprintf("How do you want to %s?", op)).
			Options(
				huh.NewOption("By amount (₹)", domain.InputModeAmount),
				huh.NewOption("By quantity (grams)", domain.InputModeQuantity),
			).
			Value(&mode),
		huh.NewInput().
			TitleFunc(func() string {
				if mode == domain.InputModeQuantity {
					return "Quantity in grams"
				}
				return "Amount in ₹"
			}, &mode).
			DescriptionFunc(func() string { return preview(current()) }, []any{&mode, &raw}).
			Value(&raw).
			Validate(func(s string) error {
				v, ok := domain.ParseValue(s)
				if !ok || !v.IsPositive() {
					return errors.New("enter a number greater than zero")
				}
				return nil
			}),
	}

	if len(banks) > 0 {
		options := make([]huh.Option[string], 0, len(banks))
		for _, b := range banks {
			options = append(options, huh.NewOption(b.String(), b.ID))
		}
		title := "Pay from"
		if op == domain.OperationSell {
			title = "Pay out to"
		}
		fields = append(fields, huh.NewSelect[string]().
			Title(title).
			Options(options...).
			Value(&bankID))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return domain.OrderInput{}, err
	}

	in := current()
	for _, b := range banks {
		if b.ID == bankID {
			in.Bank = &b
			break
		}
	}
	return in, nil
}

// Confirm shows body and asks a yes/no question.
func Confirm(title, body string) (bool, error) {
	var ok bool
	fmt.Println(boxStyle.Render(body))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Confirm").
				Negative("Cancel").
				Value(&ok),
		),
	).Run()
	return ok, err
}

const cancelChoice = "cancel"

// CheckoutForm shows the mock checkout and returns the chosen method id.
// An empty id means the user cancelled.
func CheckoutForm(merchant string, c *gateway.Checkout) (string, error) {
	options := make([]huh.Option[string], 0, len(c.Methods())+1)
	for _, m := range c.Methods() {
		options = append(options, huh.NewOption(fmt.Sprintf("%s  %s", m.Name, mutedStyle.Render(m.Description)), m.ID))
	}
	options = append(options, huh.NewOption("Cancel payment", cancelChoice))

	fmt.Println(Header(strings.ToUpper(merchant)))
	fmt.Println(boxStyle.Render(fmt.Sprintf("Amount: %s\nOrder: %s", domain.FormatINR(c.Amount()), c.OrderID())))

	var choice string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose a payment method").
				Options(options...).
				Value(&choice),
		),
	).Run()
	if err != nil {
		return "", err
	}
	if choice == cancelChoice {
		return "", nil
	}
	return choice, nil
}

// AskMobile asks for the mobile number to send the OTP to.
func AskMobile() (string, error) {
	var mobile string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Mobile number").
				Description("10 digits").
				Value(&mobile).
				Validate(validateMobile),
		),
	).Run()
	return strings.TrimSpace(mobile), err
}

// AskOTP asks for the one-time password sent to mobile.
func AskOTP(mobile string) (string, error) {
	var otp string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OTP").
				Description("Sent to " + mobile).
				Value(&otp).
				EchoMode(huh.EchoModePassword),
		),
	).Run()
	return strings.TrimSpace(otp), err
}

func validateMobile(s string) error {
	s = strings.TrimSpace(s)
	if len(s) != 10 {
		return errors.New("mobile number must have 10 digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return errors.New("mobile number must have 10 digits")
		}
	}
	return nil
}
