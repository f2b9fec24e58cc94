package sds011

import (
	"time"

	"go.uber.org/zap"
)

// RetryConfig 请求/响应关联层参数
type RetryConfig struct {
	// Retries 放弃前的最大发送次数
	Retries int
	// Timeout 单次发送后等待匹配响应的时长，超时则重发
	Timeout time.Duration
	// PollInterval 两次检查响应流之间的休眠
	PollInterval time.Duration
}

// DefaultRetryConfig 默认重试参数：5次、每次500ms、轮询100ms
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries:      5,
		Timeout:      500 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
	}
}

// Normalized 将零值字段回落到默认参数
func (c RetryConfig) Normalized() RetryConfig {
	d := DefaultRetryConfig()
	if c.Retries <= 0 {
		c.Retries = d.Retries
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	return c
}

// SendAndWait 发送命令并等待期望种类的响应，超时重发直到次数耗尽。
//
// 返回匹配的响应，以及等待期间观察到的所有其他响应（按到达顺序，
// 不丢弃）——主动上报的读数可能与一次请求/应答交换交错到达，
// 属于正常流量而非错误。
func (e *Engine) SendAndWait(cmd Command, cfg RetryConfig) (Response, []Response, error) {
	return sendAndWait(cmd, e.Send, e.responses, cfg, e.log)
}

func sendAndWait(
	cmd Command,
	send func(Command) error,
	responses <-chan Response,
	cfg RetryConfig,
	log *zap.Logger,
) (Response, []Response, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.Normalized()
	want := cmd.Kind.ResponseKind()
	var unrelated []Response

	for attempt := 1; attempt <= cfg.Retries; attempt++ {
		if err := send(cmd); err != nil {
			return Response{}, unrelated, err
		}

		deadline := time.Now().Add(cfg.Timeout)
		for time.Now().Before(deadline) {
			for {
				select {
				case resp, ok := <-responses:
					if !ok {
						return Response{}, unrelated, ErrEngineClosed
					}
					if resp.Kind == want {
						return resp, unrelated, nil
					}
					unrelated = append(unrelated, resp)
					continue
				default:
				}
				break
			}
			time.Sleep(cfg.PollInterval)
		}

		log.Debug("no response within timeout",
			zap.Stringer("command", cmd.Kind),
			zap.Int("attempt", attempt),
			zap.Int("retries", cfg.Retries))
	}

	return Response{}, unrelated, &RetriesExhaustedError{Command: cmd.Kind, Attempts: cfg.Retries}
}
