package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/PeteE/elasticmq/internal/metrics"
	"github.com/PeteE/elasticmq/models"
)

// MemoryStore is the in-memory implementation of the Store interface. It owns
// the process-wide name → queue registry; each queue serializes its own state
// behind its own mutex, so operations on different queues run fully in
// parallel while duplicate creates of the same name are rejected atomically.
type MemoryStore struct {
	clock Clock

	mu     sync.RWMutex
	queues map[string]*queue
}

// NewMemoryStore creates an empty registry. A nil clock falls back to the
// system clock; tests inject a ManualClock.
func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &MemoryStore{
		clock:  clock,
		queues: make(map[string]*queue),
	}
}

// CreateQueue creates a new queue. First writer wins; a concurrent duplicate
// create observes ErrQueueAlreadyExists.
func (s *MemoryStore) CreateQueue(ctx context.Context, name string, attributes map[string]string, tags map[string]string) error {
	attrs := defaultQueueAttributes()
	if err := attrs.merge(attributes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queues[name]; ok {
		return ErrQueueAlreadyExists
	}
	s.queues[name] = newQueue(name, attrs, tags, s.clock)

	metrics.QueuesCreated.Inc()
	metrics.QueuesLive.Inc()
	return nil
}

// DeleteQueue removes the queue and discards all messages and in-flight
// receipt handles. Subsequent operations on the name fail with
// ErrQueueDoesNotExist until the name is created again.
func (s *MemoryStore) DeleteQueue(ctx context.Context, name string) error {
	s.mu.Lock()
	q, ok := s.queues[name]
	if !ok {
		s.mu.Unlock()
		return ErrQueueDoesNotExist
	}
	delete(s.queues, name)
	s.mu.Unlock()

	q.clear()
	metrics.QueuesDeleted.Inc()
	metrics.QueuesLive.Dec()
	return nil
}

// ListQueues returns queue names sorted lexicographically, optionally filtered
// by prefix and paginated with an opaque nextToken (the last name of the
// previous page).
func (s *MemoryStore) ListQueues(ctx context.Context, maxResults int, nextToken, queueNamePrefix string) ([]string, string, error) {
	s.mu.RLock()
	allQueues := make([]string, 0, len(s.queues))
	for name := range s.queues {
		allQueues = append(allQueues, name)
	}
	s.mu.RUnlock()
	sort.Strings(allQueues)

	var filteredQueues []string
	if queueNamePrefix != "" {
		for _, q := range allQueues {
			if strings.HasPrefix(q, queueNamePrefix) {
				filteredQueues = append(filteredQueues, q)
			}
		}
	} else {
		filteredQueues = allQueues
	}

	// Find starting index from nextToken
	startIndex := 0
	if nextToken != "" {
		for i, q := range filteredQueues {
			if q == nextToken {
				startIndex = i + 1
				break
			}
		}
	}

	if startIndex >= len(filteredQueues) {
		return []string{}, "", nil // No more results
	}

	endIndex := len(filteredQueues)
	if maxResults > 0 {
		endIndex = startIndex + maxResults
	}
	if endIndex > len(filteredQueues) {
		endIndex = len(filteredQueues)
	}

	resultQueues := filteredQueues[startIndex:endIndex]

	var newNextToken string
	if maxResults > 0 && endIndex < len(filteredQueues) {
		newNextToken = resultQueues[len(resultQueues)-1]
	}

	return resultQueues, newNextToken, nil
}

func (s *MemoryStore) GetQueueAttributes(ctx context.Context, name string) (map[string]string, error) {
	q, err := s.getQueue(name)
	if err != nil {
		return nil, err
	}
	return q.attributeMap(), nil
}

func (s *MemoryStore) SetQueueAttributes(ctx context.Context, name string, attributes map[string]string) error {
	q, err := s.getQueue(name)
	if err != nil {
		return err
	}
	return q.setAttributes(attributes)
}

// GetQueueURL confirms the queue exists and returns its name; the protocol
// layer turns the name into a URL for the requesting host.
func (s *MemoryStore) GetQueueURL(ctx context.Context, name string) (string, error) {
	if _, err := s.getQueue(name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *MemoryStore) PurgeQueue(ctx context.Context, name string) error {
	q, err := s.getQueue(name)
	if err != nil {
		return err
	}
	return q.purge()
}

func (s *MemoryStore) SendMessage(ctx context.Context, queueName string, message *models.SendMessageRequest) (*models.SendMessageResponse, error) {
	q, err := s.getQueue(queueName)
	if err != nil {
		return nil, err
	}
	return q.send(message.MessageBody, message.DelaySeconds)
}

// SendMessageBatch applies SendMessage to each entry independently. Partial
// success is expected; a failed entry never aborts its siblings.
func (s *MemoryStore) SendMessageBatch(ctx context.Context, queueName string, req *models.SendMessageBatchRequest) (*models.SendMessageBatchResponse, error) {
	q, err := s.getQueue(queueName)
	if err != nil {
		return nil, err
	}

	resp := &models.SendMessageBatchResponse{
		Successful: []models.SendMessageBatchResultEntry{},
		Failed:     []models.BatchResultErrorEntry{},
	}
	for _, entry := range req.Entries {
		sent, err := q.send(entry.MessageBody, entry.DelaySeconds)
		if err != nil {
			resp.Failed = append(resp.Failed, batchError(entry.Id, err))
			continue
		}
		resp.Successful = append(resp.Successful, models.SendMessageBatchResultEntry{
			Id:               entry.Id,
			MessageId:        sent.MessageId,
			MD5OfMessageBody: sent.MD5OfMessageBody,
		})
	}
	return resp, nil
}

func (s *MemoryStore) ReceiveMessage(ctx context.Context, queueName string, req *models.ReceiveMessageRequest) (*models.ReceiveMessageResponse, error) {
	q, err := s.getQueue(queueName)
	if err != nil {
		return nil, err
	}
	return q.receive(ctx, req)
}

func (s *MemoryStore) DeleteMessage(ctx context.Context, queueName string, receiptHandle string) error {
	q, err := s.getQueue(queueName)
	if err != nil {
		return err
	}
	return q.deleteMessage(receiptHandle)
}

func (s *MemoryStore) DeleteMessageBatch(ctx context.Context, queueName string, entries []models.DeleteMessageBatchRequestEntry) (*models.DeleteMessageBatchResponse, error) {
	q, err := s.getQueue(queueName)
	if err != nil {
		return nil, err
	}

	resp := &models.DeleteMessageBatchResponse{
		Successful: []models.DeleteMessageBatchResultEntry{},
		Failed:     []models.BatchResultErrorEntry{},
	}
	for _, entry := range entries {
		if err := q.deleteMessage(entry.ReceiptHandle); err != nil {
			resp.Failed = append(resp.Failed, batchError(entry.Id, err))
			continue
		}
		resp.Successful = append(resp.Successful, models.DeleteMessageBatchResultEntry{Id: entry.Id})
	}
	return resp, nil
}

func (s *MemoryStore) ChangeMessageVisibility(ctx context.Context, queueName string, receiptHandle string, visibilityTimeout int) error {
	q, err := s.getQueue(queueName)
	if err != nil {
		return err
	}
	return q.changeVisibility(receiptHandle, visibilityTimeout)
}

func (s *MemoryStore) ChangeMessageVisibilityBatch(ctx context.Context, queueName string, entries []models.ChangeMessageVisibilityBatchRequestEntry) (*models.ChangeMessageVisibilityBatchResponse, error) {
	q, err := s.getQueue(queueName)
	if err != nil {
		return nil, err
	}

	resp := &models.ChangeMessageVisibilityBatchResponse{
		Successful: []models.ChangeMessageVisibilityBatchResultEntry{},
		Failed:     []models.BatchResultErrorEntry{},
	}
	for _, entry := range entries {
		if err := q.changeVisibility(entry.ReceiptHandle, entry.VisibilityTimeout); err != nil {
			resp.Failed = append(resp.Failed, batchError(entry.Id, err))
			continue
		}
		resp.Successful = append(resp.Successful, models.ChangeMessageVisibilityBatchResultEntry{Id: entry.Id})
	}
	return resp, nil
}

func (s *MemoryStore) ListQueueTags(ctx context.Context, queueName string) (map[string]string, error) {
	q, err := s.getQueue(queueName)
	if err != nil {
		return nil, err
	}
	return q.tagMap(), nil
}

func (s *MemoryStore) TagQueue(ctx context.Context, queueName string, tags map[string]string) error {
	q, err := s.getQueue(queueName)
	if err != nil {
		return err
	}
	q.addTags(tags)
	return nil
}

func (s *MemoryStore) UntagQueue(ctx context.Context, queueName string, tagKeys []string) error {
	q, err := s.getQueue(queueName)
	if err != nil {
		return err
	}
	q.removeTags(tagKeys)
	return nil
}

// getQueue resolves a live queue by name.
func (s *MemoryStore) getQueue(name string) (*queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.queues[name]
	if !ok {
		return nil, ErrQueueDoesNotExist
	}
	return q, nil
}

// sweepQueues runs one sweep pass over every live queue: retention drops plus
// waking receivers parked past a visibility expiry or an elapsed delay.
// Returns the number of messages dropped by retention.
func (s *MemoryStore) sweepQueues(enforceRetention bool) int {
	s.mu.RLock()
	snapshot := make([]*queue, 0, len(s.queues))
	for _, q := range s.queues {
		snapshot = append(snapshot, q)
	}
	s.mu.RUnlock()

	var expired int
	for _, q := range snapshot {
		n, eligible := q.sweep(enforceRetention)
		expired += n
		if eligible {
			q.waiters.notify()
			metrics.SweepWakeups.Inc()
		}
	}
	return expired
}

// batchError renders a per-entry failure in SQS batch result form.
func batchError(id string, err error) models.BatchResultErrorEntry {
	entry := models.BatchResultErrorEntry{
		Id:          id,
		Message:     err.Error(),
		SenderFault: true,
	}
	switch {
	case errors.Is(err, ErrInvalidReceiptHandle):
		entry.Code = "ReceiptHandleIsInvalid"
	case errors.Is(err, ErrMessageTooLarge):
		entry.Code = "InvalidParameterValue"
	case errors.Is(err, ErrInvalidAttributeValue):
		entry.Code = "InvalidParameterValue"
	default:
		entry.Code = "InternalError"
		entry.SenderFault = false
	}
	return entry
}
