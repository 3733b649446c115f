package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"thrift-stock-service/app/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const streamHeartbeat = 25 * time.Second

type StreamHandler struct {
	stream    domain.StockStream
	heartbeat time.Duration
}

func NewStreamHandler(stream domain.StockStream) *StreamHandler {
	return &StreamHandler{stream: stream, heartbeat: streamHeartbeat}
}

// StockStream pushes stock snapshots as server-sent events so open product
// pages can refetch availability. ?product_id= narrows it to one product.
func (h *StreamHandler) StockStream(c *fiber.Ctx) error {
	productID := c.Query("product_id")

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	messages, cancel := h.stream.Subscribe()
	heartbeat := h.heartbeat

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if productID != "" && msg.ProductID != productID {
					continue
				}
				data, err := json.Marshal(msg)
				if err != nil {
					slog.Warn("[streamHandler] StockStream", "json.Marshal", err)
					continue
				}
				fmt.Fprintf(w, "event: stock\ndata: %s\n\n", data)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			// a failed flush means the client went away
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}
