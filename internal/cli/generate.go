package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/passgen/passgen/internal/options"
	"github.com/passgen/passgen/internal/services"
)

type generateFlags struct {
	length      int
	charsets    []string
	upper       bool
	lower       bool
	digits      bool
	symbols     bool
	count       int
	showEntropy bool
}

func newGenerateCommand(a *app) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print one or more passwords",
		Long: `Print passwords, one per line. Flags that are not given fall back to the
configured defaults (8 characters of uppercase, lowercase and digits unless
changed in passgen.yaml or PASSWORD_DEFAULT_* variables).`,
		Example: `  passgen generate
  passgen generate --length 20 --symbols
  passgen generate -l 12 --upper=false --lower=false -n 5
  passgen generate -c digits -c symbols -l 16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.length, "length", "l", 0, fmt.Sprintf("password length (%d-%d)", options.MinLength, options.MaxLength))
	fl.StringSliceVarP(&f.charsets, "charset", "c", nil, "use only these charsets (upper, lower, digits, symbols); repeatable")
	fl.BoolVarP(&f.upper, "upper", "u", false, "include uppercase letters A-Z")
	fl.BoolVarP(&f.lower, "lower", "w", false, "include lowercase letters a-z")
	fl.BoolVarP(&f.digits, "digits", "d", false, "include digits 0-9")
	fl.BoolVarP(&f.symbols, "symbols", "s", false, "include symbols !@#$%&*+-[](){}")
	fl.IntVarP(&f.count, "count", "n", 1, "number of passwords")
	fl.BoolVar(&f.showEntropy, "entropy", false, "print the entropy in bits to stderr")

	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, f generateFlags) error {
	svc, err := services.NewPasswordService(services.PasswordServiceConfig{
		Defaults: a.defaultProfile(),
		MaxCount: a.cfg.Password.MaxCount,
	}, nil)
	if err != nil {
		return err
	}

	req := services.GenerateRequest{Count: &f.count}
	fl := cmd.Flags()
	if fl.Changed("length") {
		req.Length = &f.length
	}
	if fl.Changed("charset") {
		req.Charsets = f.charsets
	}
	req.Upper = changedBool(fl, "upper", &f.upper)
	req.Lower = changedBool(fl, "lower", &f.lower)
	req.Digits = changedBool(fl, "digits", &f.digits)
	req.Symbols = changedBool(fl, "symbols", &f.symbols)

	resp, err := svc.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, pw := range resp.Passwords {
		fmt.Fprintln(out, pw)
	}
	if f.showEntropy {
		fmt.Fprintf(cmd.ErrOrStderr(), "entropy: %.2f bits (%s)\n", resp.Entropy, resp.Profile.Key())
	}
	return nil
}

func changedBool(fl *pflag.FlagSet, name string, v *bool) *bool {
	if !fl.Changed(name) {
		return nil
	}
	return v
}

// defaultProfile builds the request defaults from configuration.
func (a *app) defaultProfile() options.Profile {
	p := a.cfg.Password
	return options.Profile{
		Length:  p.DefaultLength,
		Upper:   p.DefaultUpper,
		Lower:   p.DefaultLower,
		Digits:  p.DefaultDigits,
		Symbols: p.DefaultSymbols,
	}
}
