// Package receiptcheck реализует одноразовую проверку чека из файла.
package receiptcheck

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/simple-iap/internal/config"
	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
	"github.com/magabrotheeeer/simple-iap/internal/receipt"
)

// ErrInvalidReceipt возвращается, когда проверка закончилась error(...).
var ErrInvalidReceipt = errors.New("receipt is not valid")

type options struct {
	configPath  string
	receiptPath string
	verifyURL   string
}

// NewCommand создает команду receipt-check. Вывод идет в out, логи в logOut.
func NewCommand(out, logOut io.Writer) *cobra.Command {
	opts := options{configPath: os.Getenv("CONFIG_PATH")}

	cmd := &cobra.Command{
		Use:           "receipt-check",
		Short:         "validates a receipt file against the verification endpoint",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, out, logOut)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", opts.configPath, "path to yaml config (defaults to $CONFIG_PATH)")
	cmd.Flags().StringVarP(&opts.receiptPath, "receipt", "r", "", "receipt file, overrides store.receipt_path")
	cmd.Flags().StringVar(&opts.verifyURL, "url", "", "verification endpoint, overrides store.verify_receipt_url")
	return cmd
}

func run(cmd *cobra.Command, opts options, out, logOut io.Writer) error {
	const op = "receiptcheck.run"

	if opts.configPath == "" {
		return fmt.Errorf("%s: config path is not set", op)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if opts.receiptPath != "" {
		cfg.ReceiptPath = opts.receiptPath
	}
	if opts.verifyURL != "" {
		cfg.VerifyReceiptURL = opts.verifyURL
	}

	log := sl.New(cfg.Env, logOut)

	data, err := receipt.NewFile(cfg.ReceiptPath).Load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	status := receipt.New(cfg.Store, nil, nil, log).Verify(cmd.Context(), data)
	fmt.Fprintf(out, "status: %s\n", status)
	if status.IsError() {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidReceipt, status.Message())
	}

	fmt.Fprintf(out, "active: %t\n", status.ActiveAt(time.Now()))
	return nil
}
