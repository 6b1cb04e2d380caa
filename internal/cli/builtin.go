package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	"github.com/shaiso/Weft/internal/registry"
)

// Ограничения встроенных задач.
const (
	httpTimeout     = 30 * time.Second
	maxResponseBody = 10 * 1024 * 1024 // 10 MB
)

// BuiltinRegistry возвращает реестр со встроенными задачами.
//
// Встроенные задачи позволяют запускать flow без написания Go-кода:
// DSL-файл ссылается на них по имени. Прикладные задачи
// регистрируются поверх через Registry.Register.
func BuiltinRegistry() *registry.Registry {
	reg := registry.New()

	reg.Register(registry.Task{
		Name:        "delay",
		Description: "Pause for duration_ms milliseconds",
		Params:      []string{"duration_ms"},
		Fn:          delayTask,
	})

	reg.Register(registry.Task{
		Name:        "http_get",
		Description: "HTTP GET request, returns status_code and body",
		Params:      []string{"url"},
		Fn:          httpGetTask,
		InputValidator: func(args map[string]any) error {
			if _, ok := args["url"].(string); !ok {
				return fmt.Errorf("http_get requires string param url")
			}
			return nil
		},
	})

	reg.Register(registry.Task{
		Name:        "shell",
		Description: "Run a shell command, returns stdout",
		Params:      []string{"command"},
		Fn:          shellTask,
		InputValidator: func(args map[string]any) error {
			if _, ok := args["command"].(string); !ok {
				return fmt.Errorf("shell requires string param command")
			}
			return nil
		},
	})

	return reg
}

// delayTask приостанавливает выполнение. Прерывается отменой контекста.
func delayTask(ctx context.Context, args map[string]any) (any, error) {
	ms, err := intArg(args, "duration_ms")
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return map[string]any{"duration_ms": ms}, nil
	}
}

// httpGetTask выполняет GET-запрос и возвращает статус и тело ответа.
func httpGetTask(ctx context.Context, args map[string]any) (any, error) {
	url := args["url"].(string)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	client := &http.Client{Timeout: httpTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(body),
	}, nil
}

// shellTask выполняет команду через sh -c и возвращает stdout.
func shellTask(ctx context.Context, args map[string]any) (any, error) {
	command := args["command"].(string)

	out, err := exec.CommandContext(ctx, "sh", "-c", command).Output()
	if err != nil {
		return nil, fmt.Errorf("run %q: %w", command, err)
	}
	return map[string]any{"stdout": string(out)}, nil
}

// intArg извлекает целочисленный аргумент.
// JSON-числа приходят как float64, поэтому принимаются оба вида.
func intArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("param %s must be a number, got %T", key, v)
	}
}
