package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/internal/mylog"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootParams) *cobra.Command {
	params := &struct {
		Host string
		Port int
	}{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat and memory HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, conf, err := root.newAurora()
			if err != nil {
				return err
			}
			defer a.Close()
			logger := a.Logger()

			host, port := conf.Host, conf.Port
			if cmd.Flags().Changed("host") {
				host = params.Host
			}
			if cmd.Flags().Changed("port") {
				port = params.Port
			}

			server := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", host, port),
				Handler: a.Handler(),
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			go func() {
				<-ctx.Done()
				if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.Error("failed to shutdown server", mylog.Err(err))
				}
			}()

			logger.Info("server started", "addr", server.Addr)
			defer logger.Info("server stopped")

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrapf(err, "failed to serve on %s", server.Addr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Host, "host", "127.0.0.1", "Host to listen on")
	cmd.Flags().IntVarP(&params.Port, "port", "p", 10080, "Port to listen on")

	return cmd
}
