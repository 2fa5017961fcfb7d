package services

import (
	"fmt"
	"sync"
	"time"

	"occupancy-dashboard/config"
	ws "occupancy-dashboard/websocket"

	"github.com/apex/log"
)

// WebSocketService polls for newly arrived submissions and broadcasts
// them, with compliance flags attached, to connected dashboard clients.
type WebSocketService struct {
	db          *DatabaseService
	aggregation *AggregationService
	hub         *ws.Hub
	config      *config.Config

	lastProcessedID int64
	mu              sync.RWMutex

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWebSocketService creates a new WebSocket service.
func NewWebSocketService(db *DatabaseService, aggregation *AggregationService, cfg *config.Config) *WebSocketService {
	return &WebSocketService{
		db:          db,
		aggregation: aggregation,
		hub:         ws.NewHub(),
		config:      cfg,
		stopChan:    make(chan struct{}),
	}
}

// Start starts the hub and the broadcast loop.
func (s *WebSocketService) Start() error {
	log.Info("Starting submissions WebSocket service...")

	go s.hub.Run()

	lastID, err := s.db.LatestSubmissionID()
	if err != nil {
		return fmt.Errorf("failed to initialize submission cursor: %w", err)
	}
	s.mu.Lock()
	s.lastProcessedID = lastID
	s.mu.Unlock()
	log.Infof("Initialized submission cursor at id %d", lastID)

	s.wg.Add(1)
	go s.broadcastLoop()

	return nil
}

// Stop stops the service gracefully.
func (s *WebSocketService) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	log.Info("Submissions WebSocket service stopped")
}

// GetHub returns the WebSocket hub.
func (s *WebSocketService) GetHub() *ws.Hub {
	return s.hub
}

func (s *WebSocketService) broadcastLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Duration(s.config.WSPollIntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if err := s.processNewSubmissions(); err != nil {
				log.Errorf("Error processing new submissions: %v", err)
			}
		}
	}
}

func (s *WebSocketService) processNewSubmissions() error {
	s.mu.RLock()
	lastID := s.lastProcessedID
	s.mu.RUnlock()

	entries, err := s.db.SubmissionsSince(lastID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	s.aggregation.AnnotateCompliance(entries)
	s.hub.BroadcastSubmissions(entries)

	s.mu.Lock()
	s.lastProcessedID = entries[len(entries)-1].ID
	s.mu.Unlock()

	log.Infof("Processed %d new submissions (id %d-%d)",
		len(entries), entries[0].ID, entries[len(entries)-1].ID)

	return nil
}
