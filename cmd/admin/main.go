// admin holds operator utilities: hashing the admin password and checking OTP email delivery.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"portfolio-admin/internal/config"
	"portfolio-admin/internal/mfa"
	"portfolio-admin/internal/mfa/email"
	"portfolio-admin/internal/security"
)

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "Portfolio admin operator tools",
	SilenceUsage: true,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Long: `Hashes the given password with BCRYPT_COST (default 12) and prints the result.
With no argument the password is read from the first line of stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPassword,
}

var sendTestOTPCmd = &cobra.Command{
	Use:   "send-test-otp",
	Short: "Send a throwaway OTP email through the configured provider",
	RunE:  runSendTestOTP,
}

var (
	cost   int
	sendTo string
)

func init() {
	hashPasswordCmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (overrides BCRYPT_COST)")
	sendTestOTPCmd.Flags().StringVar(&sendTo, "to", "", "recipient (defaults to ADMIN_EMAIL)")

	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(sendTestOTPCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password, err := passwordArg(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if cost == 0 {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cost = cfg.BcryptCost
	}
	hash, err := security.NewHasher(cost).Hash([]byte(password))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func passwordArg(args []string, in io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

func runSendTestOTP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	to := sendTo
	if to == "" {
		to = cfg.AdminEmail
	}
	if to == "" {
		return errors.New("no recipient: pass --to or set ADMIN_EMAIL")
	}
	if cfg.ResendAPIKey == "" {
		return errors.New("RESEND_API_KEY is not set")
	}

	code, err := mfa.GenerateOTP()
	if err != nil {
		return err
	}
	notifier := email.NewOTPNotifier(email.NewResendClient(cfg.ResendAPIKey, cfg.ResendBaseURL),
		cfg.EmailFrom, cfg.OTPTTL(), cfg.EmailSendTimeout())

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	id, err := notifier.SendOTP(ctx, code, to)
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent test OTP %s to %s (message id %s)\n", code, to, id)
	return nil
}
