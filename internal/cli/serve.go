package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Weft/internal/notify"
	"github.com/shaiso/Weft/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	var port string
	var tick time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler process with /metrics and /healthz",
		Long: `Run a long-lived process that fires due schedules and exposes
Prometheus metrics. Notifications about finished runs go to the log,
or to RabbitMQ when AMQP_URL is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			notifier, cleanup, err := buildNotifier(app)
			if err != nil {
				return err
			}
			defer cleanup()

			sched := scheduler.New(scheduler.Config{
				Store:      app.schedules,
				Sequential: app.sequential(),
				Parallel:   app.parallel(0),
				Notifier:   notifier,
				Logger:     app.logger,
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go sched.Start(ctx, tick)

			mux := http.NewServeMux()
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			mux.Handle("/metrics", promhttp.Handler())

			if v := os.Getenv("WEFT_PORT"); v != "" {
				port = v
			}
			server := &http.Server{Addr: ":" + port, Handler: mux}

			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				server.Shutdown(shutdownCtx)
			}()

			app.logger.Info("weft serve started", "addr", server.Addr, "tick", tick)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "8080", "HTTP port for /metrics and /healthz")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Scheduler tick period")

	return cmd
}

// buildNotifier выбирает уведомитель: RabbitMQ при заданном AMQP_URL,
// иначе лог. Возвращает функцию освобождения ресурсов.
func buildNotifier(a *app) (notify.Notifier, func(), error) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		return notify.NewLogNotifier(a.logger), func() {}, nil
	}

	conn, err := notify.NewConnection(url, a.logger)
	if err != nil {
		return nil, nil, err
	}

	notifier, err := notify.NewAMQPNotifier(conn, a.logger)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	return notifier, func() { conn.Close() }, nil
}
