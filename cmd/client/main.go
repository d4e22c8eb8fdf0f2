// cmd/client/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gurkanbulca/taskhub/internal/transport/rpc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskhub-client",
		Short:         "Talk to a running taskhub server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newLoginCommand(), newWatchCommand())
	return root
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

func newLoginCommand() *cobra.Command {
	var (
		baseURL  string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in over HTTP and print the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := login(baseURL, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "HTTP base URL")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func login(baseURL, email, password string) (string, error) {
	agent := fiber.Post(strings.TrimRight(baseURL, "/") + "/api/auth/login").
		Timeout(10 * time.Second).
		JSON(fiber.Map{"email": email, "password": password})

	var resp loginResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return "", fmt.Errorf("login request: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("login failed (%d): %s", code, resp.Message)
	}
	return resp.Token, nil
}

func newWatchCommand() *cobra.Command {
	var (
		addr  string
		token string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream task events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				token = os.Getenv("TASKHUB_TOKEN")
			}
			if token == "" {
				return errors.New("a token is required: pass --token or set TASKHUB_TOKEN")
			}
			return watch(cmd.Context(), addr, token, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "gRPC server address")
	cmd.Flags().StringVar(&token, "token", "", "session token from login")
	return cmd
}

func watch(ctx context.Context, addr, token string, out io.Writer) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	stream, err := rpc.Watch(ctx, conn)
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
				return nil
			}
			return err
		}
		line, err := protojson.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		fmt.Fprintln(out, string(line))
	}
}
