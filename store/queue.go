package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/PeteE/elasticmq/internal/metrics"
	"github.com/PeteE/elasticmq/models"
)

// SQS defaults and limits for queue attributes.
const (
	defaultVisibilityTimeout = 30 * time.Second
	defaultMaxMessageSize    = 262144
	defaultRetentionPeriod   = 345600 * time.Second // 4 days

	// A queue may only be purged once per minute.
	purgeCooldown = 60 * time.Second
)

// queueAttributes is the typed form of the SQS attribute map for one queue.
type queueAttributes struct {
	VisibilityTimeout time.Duration
	Delay             time.Duration
	ReceiveWait       time.Duration
	MaxMessageSize    int
	RetentionPeriod   time.Duration
}

func defaultQueueAttributes() queueAttributes {
	return queueAttributes{
		VisibilityTimeout: defaultVisibilityTimeout,
		Delay:             0,
		ReceiveWait:       0,
		MaxMessageSize:    defaultMaxMessageSize,
		RetentionPeriod:   defaultRetentionPeriod,
	}
}

// merge applies the supplied attribute map on top of the current values.
// Unspecified attributes keep their previous values; unknown attribute names
// are ignored here because the protocol layer rejects them before the engine
// sees them.
func (a *queueAttributes) merge(attributes map[string]string) error {
	for key, val := range attributes {
		var err error
		switch key {
		case "VisibilityTimeout":
			a.VisibilityTimeout, err = parseSecondsAttribute(val, 0, 43200)
		case "DelaySeconds":
			a.Delay, err = parseSecondsAttribute(val, 0, 900)
		case "ReceiveMessageWaitTimeSeconds":
			a.ReceiveWait, err = parseSecondsAttribute(val, 0, 20)
		case "MessageRetentionPeriod":
			a.RetentionPeriod, err = parseSecondsAttribute(val, 60, 1209600)
		case "MaximumMessageSize":
			var size int
			size, err = strconv.Atoi(val)
			if err == nil && (size < 1024 || size > 262144) {
				err = errors.Newf("must be between %d and %d", 1024, 262144)
			}
			if err == nil {
				a.MaxMessageSize = size
			}
		}
		if err != nil {
			return errors.Wrapf(ErrInvalidAttributeValue, "%s: %v", key, err)
		}
	}
	return nil
}

func parseSecondsAttribute(val string, min, max int) (time.Duration, error) {
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if secs < min || secs > max {
		return 0, errors.Newf("must be between %d and %d", min, max)
	}
	return time.Duration(secs) * time.Second, nil
}

// queue is the engine for a single queue. All message and attribute state is
// guarded by mu; nothing holds mu across a suspend point. A receive that finds
// the queue empty parks on the waitList instead, so sends (which need mu) are
// never blocked by waiting receivers.
type queue struct {
	name    string
	clock   Clock
	waiters *waitList

	mu           sync.Mutex
	attrs        queueAttributes
	tags         map[string]string
	createdAt    time.Time
	modifiedAt   time.Time
	lastPurgedAt time.Time

	// nextSeq strictly increases per send for the lifetime of the queue.
	nextSeq int64
	// messages holds every live message in ascending sequence order; delayed
	// and in-flight messages stay in place and are skipped by eligibility.
	messages []*models.Message
	// byHandle maps each message's current receipt handle to the message.
	// Handles superseded by redelivery are removed as the new one is minted.
	byHandle map[string]*models.Message
}

func newQueue(name string, attrs queueAttributes, tags map[string]string, clock Clock) *queue {
	if tags == nil {
		tags = make(map[string]string)
	}
	now := clock.Now()
	return &queue{
		name:       name,
		clock:      clock,
		waiters:    newWaitList(),
		attrs:      attrs,
		tags:       tags,
		createdAt:  now,
		modifiedAt: now,
		byHandle:   make(map[string]*models.Message),
	}
}

func md5Hex(body string) string {
	sum := md5.Sum([]byte(body))
	return hex.EncodeToString(sum[:])
}

// send enqueues a message. The delay override, when present, replaces the
// queue's default DelaySeconds for this message only.
func (q *queue) send(body string, delayOverride *int32) (*models.SendMessageResponse, error) {
	q.mu.Lock()
	if len(body) > q.attrs.MaxMessageSize {
		q.mu.Unlock()
		return nil, errors.Wrapf(ErrMessageTooLarge, "body is %d bytes, limit is %d", len(body), q.attrs.MaxMessageSize)
	}

	now := q.clock.Now()
	delay := q.attrs.Delay
	if delayOverride != nil {
		delay = time.Duration(*delayOverride) * time.Second
	}

	q.nextSeq++
	m := &models.Message{
		ID:             uuid.New().String(),
		Body:           body,
		MD5OfBody:      md5Hex(body),
		SequenceNumber: q.nextSeq,
		DeliveryTime:   now.Add(delay),
		SentAt:         now,
	}
	q.messages = append(q.messages, m)
	eligible := !m.DeliveryTime.After(now)
	q.mu.Unlock()

	metrics.MessagesSent.WithLabelValues(q.name).Inc()

	// Wake parked receivers after releasing the state lock, but only when the
	// message is immediately eligible. A delayed message must not cut a long
	// poll short; it reaches waiters through the sweep once its delay elapses.
	if eligible {
		q.waiters.notify()
	}

	return &models.SendMessageResponse{
		MessageId:        m.ID,
		MD5OfMessageBody: m.MD5OfBody,
	}, nil
}

// receive claims up to MaxNumberOfMessages eligible messages. If none are
// immediately eligible and a wait time applies, the caller parks on the wait
// list until a message may have become available or the deadline elapses,
// then re-attempts exactly once. A re-attempt that comes back empty returns
// empty rather than waiting again: another receiver may have claimed the
// message that triggered the wake.
func (q *queue) receive(ctx context.Context, req *models.ReceiveMessageRequest) (*models.ReceiveMessageResponse, error) {
	max := 1
	if req.MaxNumberOfMessages != nil && *req.MaxNumberOfMessages > 0 {
		max = *req.MaxNumberOfMessages
	}

	msgs := q.claim(max, req.VisibilityTimeout)
	if len(msgs) == 0 {
		if wait := q.waitTime(req); wait > 0 {
			msgs = q.waitAndClaim(ctx, wait, max, req.VisibilityTimeout)
		}
	}

	resp := &models.ReceiveMessageResponse{Messages: msgs}
	if resp.Messages == nil {
		resp.Messages = []models.ResponseMessage{}
	}
	return resp, nil
}

func (q *queue) waitAndClaim(ctx context.Context, wait time.Duration, max int, visibilityOverride *int) []models.ResponseMessage {
	start := time.Now()
	defer func() {
		metrics.ReceiveWaitDuration.Observe(time.Since(start).Seconds())
	}()

	ch, cancel := q.waiters.register()
	defer cancel()

	// Re-check after registering; a send between the caller's first attempt
	// and registration would otherwise be missed entirely.
	if msgs := q.claim(max, visibilityOverride); len(msgs) > 0 {
		return msgs
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
	case <-ctx.Done():
		// Caller abandoned the wait; the deferred cancel cleans up the
		// wait-list entry.
		return nil
	}
	return q.claim(max, visibilityOverride)
}

// claim marks up to max eligible messages in-flight and returns their response
// forms. Eligibility is computed lazily from DeliveryTime against a single
// clock reading; an in-flight message whose visibility timeout has elapsed is
// indistinguishable from a visible one and gets redelivered here with a fresh
// handle and an incremented receive count.
func (q *queue) claim(max int, visibilityOverride *int) []models.ResponseMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	visibility := q.attrs.VisibilityTimeout
	if visibilityOverride != nil {
		visibility = time.Duration(*visibilityOverride) * time.Second
	}

	var out []models.ResponseMessage
	for _, m := range q.messages {
		if len(out) == max {
			break
		}
		if m.DeliveryTime.After(now) {
			// Delayed or still in flight; skipped even though later sequence
			// numbers may be eligible.
			continue
		}
		if m.ReceiptHandle != "" {
			delete(q.byHandle, m.ReceiptHandle)
		}
		m.ReceiptHandle = uuid.New().String()
		m.ReceiveCount++
		if m.FirstReceived.IsZero() {
			m.FirstReceived = now
		}
		m.DeliveryTime = now.Add(visibility)
		q.byHandle[m.ReceiptHandle] = m

		out = append(out, models.ResponseMessage{
			MessageId:     m.ID,
			Body:          m.Body,
			MD5OfBody:     m.MD5OfBody,
			ReceiptHandle: m.ReceiptHandle,
			Attributes: map[string]string{
				"SentTimestamp":                    strconv.FormatInt(m.SentAt.UnixMilli(), 10),
				"ApproximateReceiveCount":          strconv.Itoa(m.ReceiveCount),
				"ApproximateFirstReceiveTimestamp": strconv.FormatInt(m.FirstReceived.UnixMilli(), 10),
				"SequenceNumber":                   strconv.FormatInt(m.SequenceNumber, 10),
			},
		})
	}

	if len(out) > 0 {
		metrics.MessagesReceived.WithLabelValues(q.name).Add(float64(len(out)))
	}
	return out
}

// waitTime resolves the effective long-poll duration for a receive request.
func (q *queue) waitTime(req *models.ReceiveMessageRequest) time.Duration {
	if req.WaitTimeSeconds != nil {
		return time.Duration(*req.WaitTimeSeconds) * time.Second
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.attrs.ReceiveWait
}

// inFlightLocked reports the message owning the handle, if the handle is the
// message's current one and its visibility timeout has not elapsed. A handle
// superseded by expiry or redelivery is stale. Caller holds q.mu.
func (q *queue) inFlightLocked(receiptHandle string, now time.Time) (*models.Message, bool) {
	m, ok := q.byHandle[receiptHandle]
	if !ok || !m.DeliveryTime.After(now) {
		return nil, false
	}
	return m, true
}

// deleteMessage removes the message permanently. It succeeds only against the
// handle of the message's most recent, still-live delivery attempt.
func (q *queue) deleteMessage(receiptHandle string) error {
	q.mu.Lock()
	m, ok := q.inFlightLocked(receiptHandle, q.clock.Now())
	if !ok {
		q.mu.Unlock()
		return ErrInvalidReceiptHandle
	}
	delete(q.byHandle, receiptHandle)
	q.removeLocked(m)
	q.mu.Unlock()

	metrics.MessagesDeleted.WithLabelValues(q.name).Inc()
	return nil
}

// changeVisibility moves the message's delivery time to now+seconds. Zero
// returns it to the visible state immediately, in which case parked receivers
// are woken.
func (q *queue) changeVisibility(receiptHandle string, seconds int) error {
	q.mu.Lock()
	now := q.clock.Now()
	m, ok := q.inFlightLocked(receiptHandle, now)
	if !ok {
		q.mu.Unlock()
		return ErrInvalidReceiptHandle
	}
	m.DeliveryTime = now.Add(time.Duration(seconds) * time.Second)
	q.mu.Unlock()

	if seconds == 0 {
		q.waiters.notify()
	}
	return nil
}

// removeLocked deletes m from the sequence-ordered slice. Caller holds q.mu.
func (q *queue) removeLocked(m *models.Message) {
	i := sort.Search(len(q.messages), func(i int) bool {
		return q.messages[i].SequenceNumber >= m.SequenceNumber
	})
	if i < len(q.messages) && q.messages[i] == m {
		q.messages = append(q.messages[:i], q.messages[i+1:]...)
	}
}

// purge drops every message and invalidates all outstanding receipt handles.
// SQS rejects a second purge within 60 seconds of the previous one.
func (q *queue) purge() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	if !q.lastPurgedAt.IsZero() && now.Sub(q.lastPurgedAt) < purgeCooldown {
		return ErrPurgeQueueInProgress
	}
	q.messages = nil
	q.byHandle = make(map[string]*models.Message)
	q.lastPurgedAt = now
	return nil
}

// clear unconditionally drops all state. Used by queue deletion, which has no
// purge cooldown.
func (q *queue) clear() {
	q.mu.Lock()
	q.messages = nil
	q.byHandle = make(map[string]*models.Message)
	q.mu.Unlock()

	// Wake parked receivers so they re-attempt against the now-empty queue
	// and return instead of sitting out their full deadline.
	q.waiters.notify()
}

// attributeMap renders the queue configuration plus approximate message counts
// in SQS wire form.
func (q *queue) attributeMap() map[string]string {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	var visible, inFlight, delayed int
	for _, m := range q.messages {
		switch {
		case !m.DeliveryTime.After(now):
			visible++
		case m.ReceiveCount > 0:
			inFlight++
		default:
			delayed++
		}
	}

	return map[string]string{
		"VisibilityTimeout":                     strconv.Itoa(int(q.attrs.VisibilityTimeout / time.Second)),
		"DelaySeconds":                          strconv.Itoa(int(q.attrs.Delay / time.Second)),
		"ReceiveMessageWaitTimeSeconds":         strconv.Itoa(int(q.attrs.ReceiveWait / time.Second)),
		"MaximumMessageSize":                    strconv.Itoa(q.attrs.MaxMessageSize),
		"MessageRetentionPeriod":                strconv.Itoa(int(q.attrs.RetentionPeriod / time.Second)),
		"CreatedTimestamp":                      strconv.FormatInt(q.createdAt.Unix(), 10),
		"LastModifiedTimestamp":                 strconv.FormatInt(q.modifiedAt.Unix(), 10),
		"ApproximateNumberOfMessages":           strconv.Itoa(visible),
		"ApproximateNumberOfMessagesNotVisible": strconv.Itoa(inFlight),
		"ApproximateNumberOfMessagesDelayed":    strconv.Itoa(delayed),
		"QueueArn":                              "arn:aws:sqs:elasticmq:000000000000:" + q.name,
	}
}

// setAttributes merges the supplied attributes into the queue configuration.
func (q *queue) setAttributes(attributes map[string]string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	merged := q.attrs
	if err := merged.merge(attributes); err != nil {
		return err
	}
	q.attrs = merged
	q.modifiedAt = q.clock.Now()
	return nil
}

// sweep drops messages past the retention period (when enforced) and reports
// whether any message is currently eligible. The caller notifies parked
// receivers when eligible is true: that is how a visibility-timeout expiry or
// an elapsed delay reaches a long-polling receive without per-message timers.
func (q *queue) sweep(enforceRetention bool) (expired int, eligible bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	if enforceRetention {
		kept := q.messages[:0]
		for _, m := range q.messages {
			if now.Sub(m.SentAt) >= q.attrs.RetentionPeriod {
				if m.ReceiptHandle != "" {
					delete(q.byHandle, m.ReceiptHandle)
				}
				expired++
				continue
			}
			kept = append(kept, m)
		}
		q.messages = kept
	}

	for _, m := range q.messages {
		if !m.DeliveryTime.After(now) {
			eligible = true
			break
		}
	}
	return expired, eligible
}

// tagMap returns a copy of the queue's tags.
func (q *queue) tagMap() map[string]string {
	q.mu.Lock()
	defer q.mu.Unlock()

	tags := make(map[string]string, len(q.tags))
	for k, v := range q.tags {
		tags[k] = v
	}
	return tags
}

func (q *queue) addTags(tags map[string]string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for k, v := range tags {
		q.tags[k] = v
	}
}

func (q *queue) removeTags(keys []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, k := range keys {
		delete(q.tags, k)
	}
}
