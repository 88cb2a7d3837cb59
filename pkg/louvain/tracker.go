package louvain

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// MoveEvent is one line of a move-tracking file.
type MoveEvent struct {
	MoveNumber int     `json:"move"`
	Algorithm  string  `json:"algorithm"`
	Pass       int     `json:"pass"`
	Node       int     `json:"node"`
	FromComm   int     `json:"from_comm"`
	ToComm     int     `json:"to_comm"`
	Gain       float64 `json:"gain"`
	Modularity float64 `json:"modularity"`
	Timestamp  int64   `json:"timestamp"`
}

// MoveTracker appends every local move as a JSON line. A nil tracker
// ignores all calls.
type MoveTracker struct {
	mu        sync.Mutex
	file      *os.File
	encoder   *json.Encoder
	algorithm string
	moves     int
	pass      int
	err       error
}

// NewMoveTracker creates (truncating) filename.
func NewMoveTracker(filename, algorithm string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create move tracking file: %w", err)
	}

	return &MoveTracker{
		file:      file,
		encoder:   json.NewEncoder(file),
		algorithm: algorithm,
	}, nil
}

// StartPass marks the start of a local moving pass; later moves carry the
// new pass number.
func (mt *MoveTracker) StartPass() {
	if mt == nil {
		return
	}
	mt.mu.Lock()
	mt.pass++
	mt.mu.Unlock()
}

// LogMove records a node moving between communities.
func (mt *MoveTracker) LogMove(node, fromComm, toComm int, gain, modularity float64) {
	if mt == nil {
		return
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.moves++
	event := MoveEvent{
		MoveNumber: mt.moves,
		Algorithm:  mt.algorithm,
		Pass:       mt.pass,
		Node:       node,
		FromComm:   fromComm,
		ToComm:     toComm,
		Gain:       gain,
		Modularity: modularity,
		Timestamp:  time.Now().Unix(),
	}

	// Keep the first write error for Close.
	if err := mt.encoder.Encode(event); err != nil && mt.err == nil {
		mt.err = err
	}
}

// Moves returns how many moves were recorded.
func (mt *MoveTracker) Moves() int {
	if mt == nil {
		return 0
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.moves
}

// Close flushes the file and reports the first write error, if any.
func (mt *MoveTracker) Close() error {
	if mt == nil || mt.file == nil {
		return nil
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()

	closeErr := mt.file.Close()
	mt.file = nil
	if mt.err != nil {
		return mt.err
	}
	return closeErr
}
