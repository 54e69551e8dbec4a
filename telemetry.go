// Copyright (c) 2016 BLOCKO INC.
package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/coinstack/scryptminer/event"
)

// TelemetryServer exposes the read-only HTTP+WS surface spec.md §6 names
// ("Observability"): current miner status, host load, and a websocket feed
// of solved-block/template-assembled/worker-count-changed events. Grounded
// on a gin-routed HTTP surface with a gopsutil-backed debug/metric
// endpoint and a gorilla/websocket upgrade loop, trimmed down to the
// mining engine's own telemetry instead of a full blockchain REST API.
type TelemetryServer struct {
	miner      *CPUMiner
	listenAddr string
}

// NewTelemetryServer returns a telemetry server for miner, listening on addr.
func NewTelemetryServer(miner *CPUMiner, addr string) *TelemetryServer {
	return &TelemetryServer{miner: miner, listenAddr: addr}
}

func createGin() *gin.Engine {
	m := gin.New()
	m.Use(gin.Recovery())
	return m
}

type statusResponse struct {
	Mining          bool    `json:"mining"`
	NumWorkers      int32   `json:"numworkers"`
	HashesPerSecond float64 `json:"hashespersecond"`
}

// Run starts the HTTP server and blocks until it exits or errors.
func (s *TelemetryServer) Run() error {
	m := createGin()

	m.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, statusResponse{
			Mining:          s.miner.IsMining(),
			NumWorkers:      s.miner.NumWorkers(),
			HashesPerSecond: s.miner.HashesPerSecond(),
		})
	})

	m.GET("/debug/metric", func(c *gin.Context) {
		memory, err := mem.VirtualMemory()
		if err != nil {
			restLog.Errorf("internal server error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		cp, err := cpu.Percent(0, false)
		if err != nil {
			restLog.Errorf("internal server error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"time":   time.Now().Unix(),
			"cpu":    cp[0],
			"mempct": memory.UsedPercent,
		})
	})

	m.GET("/websocket", func(c *gin.Context) {
		s.handleWebsocket(c.Writer, c.Request)
	})

	return m.Run(s.listenAddr)
}

// handleWebsocket upgrades the connection and forwards BlockSolved,
// TemplateAssembled and WorkerCountChanged events to the client until it
// disconnects, mirroring restserver.go's "/websocket" writeChan/ReadMessage
// split between a writer loop and a reader goroutine watching for pings.
func (s *TelemetryServer) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	ws, err := websocket.Upgrade(w, req, nil, 1024, 1024)
	if _, ok := err.(websocket.HandshakeError); ok {
		http.Error(w, "not a websocket handshake", http.StatusBadRequest)
		return
	} else if err != nil {
		restLog.Errorf("%v", err)
		return
	}
	defer ws.Close()

	events := make(chan event.Event, 32)
	for _, etype := range []string{event.BlockSolved, event.TemplateAssembled, event.WorkerCountChanged} {
		event.Subscribe(etype, events)
		defer event.Unsubscribe(etype, events)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ee := <-events:
			data, err := json.Marshal(ee)
			if err != nil {
				restLog.Errorf("failed to marshal event: %v", err)
				continue
			}
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				restLog.Errorf("write failed, closing socket: %v", err)
				return
			}
		}
	}
}
