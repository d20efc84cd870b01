// Command cartctl prints a user's cart by calling the storefront gRPC
// cart service, found directly or through consul.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"storefront/handlers"
	"storefront/internal/consul"
	"storefront/pkg/logkey"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
)

func main() {
	addr := flag.String("addr", "", "grpc address of the storefront, skips consul when set")
	consulAddr := flag.String("consul", "localhost:8500", "consul agent address")
	service := flag.String("service", "storefront", "service name registered in consul")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cartctl [flags] <user-id>")
		os.Exit(2)
	}
	if err := run(*addr, *consulAddr, *service, flag.Arg(0), *timeout); err != nil {
		slog.Error("cartctl failed", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run(addr, consulAddr, service, userID string, timeout time.Duration) error {
	if addr == "" {
		client, err := consul.NewClient(consulAddr)
		if err != nil {
			return err
		}
		addr, err = consul.GetServiceAddress(client, service, true)
		if err != nil {
			return err
		}
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	details, err := handlers.GetCartDetails(ctx, conn, userID)
	if err != nil {
		return err
	}
	out, err := protojson.MarshalOptions{Multiline: true}.Marshal(details)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
