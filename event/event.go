// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package event dispatches mining telemetry (solved blocks, assembled
// templates, worker-count changes) to webhook listeners and to local
// in-process subscribers such as the telemetry websocket surface.
package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/Jeffail/tunny"
)

const (
	queueSize = 200

	// BlockSolved fires once a worker finds a header below target and the
	// block has been submitted to the chain collaborator.
	BlockSolved = "blocksolved"
	// TemplateAssembled fires once a new block template has been built
	// from the mempool and handed to the workers.
	TemplateAssembled = "templateassembled"
	// WorkerCountChanged fires when the supervisor adjusts the number of
	// running mining workers.
	WorkerCountChanged = "workercountchanged"
)

var (
	eventQueue     = make(chan Event, queueSize)
	eventListeners = make(map[string]map[eventListener]struct{})
	localSubs      = make(map[string]map[chan Event]struct{})
	lock           sync.RWMutex
	pushTimeout    int32
	pool           *tunny.WorkPool
)

// Event is a single telemetry occurrence: a type tag plus its JSON payload.
type Event struct {
	Type    string
	Payload *json.RawMessage
}

// BlockSolvedPayload is the JSON body of a BlockSolved event.
type BlockSolvedPayload struct {
	BlockHash string `json:"blockhash"`
	Height    int32  `json:"height"`
	Worker    int    `json:"worker"`
}

// TemplateAssembledPayload is the JSON body of a TemplateAssembled event.
type TemplateAssembledPayload struct {
	PrevHash   string `json:"prevhash"`
	Height     int32  `json:"height"`
	NumTxns    int    `json:"numtxns"`
	TotalFees  int64  `json:"totalfees"`
}

// WorkerCountChangedPayload is the JSON body of a WorkerCountChanged event.
type WorkerCountChangedPayload struct {
	NumWorkers uint32 `json:"numworkers"`
}

type eventListener string

func marshalEvent(etype string, payload interface{}) (Event, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warnf("failed to marshal %s event: %v", etype, err)
		return Event{}, false
	}
	raw := json.RawMessage(data)
	return Event{Type: etype, Payload: &raw}, true
}

// PushBlockSolvedEvent enqueues a BlockSolved event for dispatch.
func PushBlockSolvedEvent(blockHash string, height int32, worker int) {
	if ee, ok := marshalEvent(BlockSolved, BlockSolvedPayload{blockHash, height, worker}); ok {
		pushEvent(ee)
	}
}

// PushTemplateAssembledEvent enqueues a TemplateAssembled event for dispatch.
func PushTemplateAssembledEvent(prevHash string, height int32, numTxns int, totalFees int64) {
	if ee, ok := marshalEvent(TemplateAssembled, TemplateAssembledPayload{prevHash, height, numTxns, totalFees}); ok {
		pushEvent(ee)
	}
}

// PushWorkerCountChangedEvent enqueues a WorkerCountChanged event for dispatch.
func PushWorkerCountChangedEvent(numWorkers uint32) {
	if ee, ok := marshalEvent(WorkerCountChanged, WorkerCountChangedPayload{numWorkers}); ok {
		pushEvent(ee)
	}
}

func pushEvent(ee Event) {
	log.Tracef("push event %s", ee.Type)
	select {
	case eventQueue <- ee:
	default:
		log.Tracef("push event failed(queue full)")
	}
}

func notifyEvent(ee Event) {
	lock.RLock()

	webhooks, hasWebhooks := eventListeners[ee.Type]
	webhookTargets := make([]eventListener, 0, len(webhooks))
	for listener := range webhooks {
		webhookTargets = append(webhookTargets, listener)
	}

	subs, hasSubs := localSubs[ee.Type]
	subTargets := make([]chan Event, 0, len(subs))
	for ch := range subs {
		subTargets = append(subTargets, ch)
	}

	lock.RUnlock()

	if hasWebhooks {
		for _, target := range webhookTargets {
			t := target
			pool.SendWorkAsync(func() {
				t.postEvent(ee)
			}, nil)
		}
	}

	if hasSubs {
		for _, ch := range subTargets {
			select {
			case ch <- ee:
			default:
				log.Tracef("local subscriber channel full, dropping %s event", ee.Type)
			}
		}
	}
}

func (listener *eventListener) postEvent(ee Event) {
	logStr := fmt.Sprintf("post event %s %s %s", ee.Type, string(*ee.Payload), string(*listener))
	log.Trace(logStr)
	defer func() {
		log.Trace("end of ", logStr)
	}()

	jsonData, err := json.Marshal(ee)
	if err != nil {
		return
	}
	buff := bytes.NewBuffer(jsonData)
	timeout := time.Duration(pushTimeout) * time.Second
	client := http.Client{Timeout: timeout}
	resp, err := client.Post(string(*listener), "application/json;charset=utf-8", buff)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		log.Warnf("notification failed: %v", err)
		return
	}
	ioutil.ReadAll(resp.Body)
}

// AddEventListener registers a webhook URL to receive events of etype.
func AddEventListener(etype, url string) bool {
	if etype == "" || url == "" {
		log.Tracef("add listener - invalid argument value: event type(%s), url(%s)", etype, url)
		return false
	}
	log.Tracef("add listener: event type(%s), url(%s)", etype, url)

	lock.Lock()
	defer lock.Unlock()

	listeners, exists := eventListeners[etype]
	if !exists {
		listeners = make(map[eventListener]struct{})
		eventListeners[etype] = listeners
	}
	listeners[eventListener(url)] = struct{}{}

	return true
}

// DeleteEventListener removes a previously registered webhook URL.
func DeleteEventListener(etype string, url string) {
	log.Tracef("delete listener: event type(%s), url(%s)", etype, url)

	lock.Lock()
	defer lock.Unlock()

	if listeners, exists := eventListeners[etype]; exists {
		delete(listeners, eventListener(url))
		if len(listeners) == 0 {
			delete(eventListeners, etype)
		}
	}
}

// Subscribe registers an in-process channel to receive events of etype,
// used by the telemetry websocket surface to fan solved-block and
// template-assembled events out to connected clients without a webhook
// round trip.
func Subscribe(etype string, ch chan Event) {
	lock.Lock()
	defer lock.Unlock()

	subs, exists := localSubs[etype]
	if !exists {
		subs = make(map[chan Event]struct{})
		localSubs[etype] = subs
	}
	subs[ch] = struct{}{}
}

// Unsubscribe removes a channel previously registered with Subscribe.
func Unsubscribe(etype string, ch chan Event) {
	lock.Lock()
	defer lock.Unlock()

	if subs, exists := localSubs[etype]; exists {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(localSubs, etype)
		}
	}
}

// Run drains the event queue and dispatches to registered listeners. It
// is meant to run for the lifetime of the process in its own goroutine.
func Run(pushTimeoutSeconds int32) {
	pushTimeout = pushTimeoutSeconds
	for ee := range eventQueue {
		log.Tracef("event dispatched: %s", ee.Type)
		notifyEvent(ee)
	}
}

func init() {
	pool, _ = tunny.CreatePoolGeneric(20).Open()
}
