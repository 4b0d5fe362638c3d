package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PeteE/elasticmq/models"
	"github.com/PeteE/elasticmq/store"
)

// App encapsulates the application's dependencies, primarily the queue engine
// behind the Store interface. This struct is used as the receiver for our HTTP
// handlers, giving them access to the engine and keeping the protocol layer
// free of queue state.
type App struct {
	Store store.Store
}

// sendErrorResponse is a convenience helper function to format and send error responses
// that are compatible with the AWS SQS API. It sets the appropriate headers and
// marshals the error into the standard JSON format expected by AWS clients.
func (app *App) sendErrorResponse(w http.ResponseWriter, errorType string, message string, statusCode int) {
	errResp := models.ErrorResponse{
		Type:    errorType,
		Message: message,
	}
	w.Header().Set("Content-Type", "application/x-amz-json-1.0")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errResp)
}

// RegisterSQSHandlers registers the SQS API endpoint with the Chi router.
// SQS uses a single RPC-style endpoint (`/`) where the action is specified
// in the `X-Amz-Target` header.
func (app *App) RegisterSQSHandlers(r *chi.Mux) {
	r.Post("/", app.RootSQSHandler)
}

// RootSQSHandler acts as a dispatcher for the primary SQS RPC-style endpoint.
// It inspects the `X-Amz-Target` header to determine which SQS action is being
// requested and calls the appropriate handler function.
func (app *App) RootSQSHandler(w http.ResponseWriter, r *http.Request) {
	// The target header format is typically "AmazonSQS.<ActionName>".
	target := r.Header.Get("X-Amz-Target")

	parts := strings.Split(target, ".")
	if len(parts) != 2 || parts[0] != "AmazonSQS" {
		app.sendErrorResponse(w, "InvalidAction", "Invalid X-Amz-Target header", http.StatusBadRequest)
		return
	}
	action := parts[1]

	switch action {
	case "CreateQueue":
		app.CreateQueueHandler(w, r)
	case "DeleteQueue":
		app.DeleteQueueHandler(w, r)
	case "ListQueues":
		app.ListQueuesHandler(w, r)
	case "GetQueueUrl":
		app.GetQueueUrlHandler(w, r)
	case "GetQueueAttributes":
		app.GetQueueAttributesHandler(w, r)
	case "SetQueueAttributes":
		app.SetQueueAttributesHandler(w, r)
	case "PurgeQueue":
		app.PurgeQueueHandler(w, r)
	case "TagQueue":
		app.TagQueueHandler(w, r)
	case "UntagQueue":
		app.UntagQueueHandler(w, r)
	case "ListQueueTags":
		app.ListQueueTagsHandler(w, r)
	case "SendMessage":
		app.SendMessageHandler(w, r)
	case "SendMessageBatch":
		app.SendMessageBatchHandler(w, r)
	case "ReceiveMessage":
		app.ReceiveMessageHandler(w, r)
	case "DeleteMessage":
		app.DeleteMessageHandler(w, r)
	case "DeleteMessageBatch":
		app.DeleteMessageBatchHandler(w, r)
	case "ChangeMessageVisibility":
		app.ChangeMessageVisibilityHandler(w, r)
	case "ChangeMessageVisibilityBatch":
		app.ChangeMessageVisibilityBatchHandler(w, r)
	default:
		app.sendErrorResponse(w, "UnsupportedOperation", "Unsupported operation: "+action, http.StatusBadRequest)
	}
}

// --- Validation Helpers ---

// SQS queue name validation regex, based on the official AWS SQS documentation.
// A queue name can have up to 80 characters.
// Valid values: alphanumeric characters, hyphens (-), and underscores (_).
var queueNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,80}$`)

// validateIntAttribute is a helper for checking if a string can be parsed as an integer
// and falls within a specified min/max range. This is used for validating queue attributes.
func validateIntAttribute(valStr string, min, max int) error {
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if val < min || val > max {
		return fmt.Errorf("must be between %d and %d", min, max)
	}
	return nil
}

// validateAttributes performs validation for all supported queue attributes.
// It centralizes the range rules for attributes like 'VisibilityTimeout' and
// 'MessageRetentionPeriod'. Unknown attribute names are rejected.
func validateAttributes(attributes map[string]string) error {
	for key, val := range attributes {
		var err error
		switch key {
		case "DelaySeconds":
			err = validateIntAttribute(val, 0, 900)
		case "MaximumMessageSize":
			err = validateIntAttribute(val, 1024, 262144)
		case "MessageRetentionPeriod":
			err = validateIntAttribute(val, 60, 1209600)
		case "ReceiveMessageWaitTimeSeconds":
			err = validateIntAttribute(val, 0, 20)
		case "VisibilityTimeout":
			err = validateIntAttribute(val, 0, 43200)
		default:
			err = fmt.Errorf("unknown attribute")
		}
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

// isValidSqsChars checks if a string contains only valid SQS characters.
// This is used for parameters like batch entry IDs.
// Valid characters are alphanumeric and: !"#$%&'()*+,-./:;<=>?@[\]^_`{|}~
func isValidSqsChars(s string) bool {
	for _, r := range s {
		isAlphanumeric := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		isPunctuation := strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r)
		if !isAlphanumeric && !isPunctuation {
			return false
		}
	}
	return true
}

// queueURL constructs the queue URL dynamically based on the incoming request's host.
func queueURL(r *http.Request, queueName string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/queues/%s", scheme, r.Host, queueName)
}

// --- Queue Management Handlers ---

// CreateQueueHandler handles requests to create a new queue.
// It validates the queue name and attributes before handing the queue to
// the engine.
func (app *App) CreateQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate queue name format according to SQS rules.
	if !queueNameRegex.MatchString(req.QueueName) {
		app.sendErrorResponse(w, "InvalidParameterValue", "Invalid queue name: Can only include alphanumeric characters, hyphens, and underscores. 1 to 80 in length.", http.StatusBadRequest)
		return
	}

	if err := validateAttributes(req.Attributes); err != nil {
		app.sendErrorResponse(w, "InvalidAttributeName", err.Error(), http.StatusBadRequest)
		return
	}

	err := app.Store.CreateQueue(r.Context(), req.QueueName, req.Attributes, req.Tags)
	if err != nil {
		if errors.Is(err, store.ErrQueueAlreadyExists) {
			app.sendErrorResponse(w, "QueueAlreadyExists", "Queue already exists", http.StatusConflict)
			return
		}
		if errors.Is(err, store.ErrInvalidAttributeValue) {
			app.sendErrorResponse(w, "InvalidAttributeValue", err.Error(), http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to create queue", http.StatusInternalServerError)
		return
	}

	resp := models.CreateQueueResponse{
		QueueURL: queueURL(r, req.QueueName),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// DeleteQueueHandler handles requests to delete an existing queue.
func (app *App) DeleteQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	// The queue name is extracted from the last path segment of the URL.
	queueName := path.Base(req.QueueUrl)

	err := app.Store.DeleteQueue(r.Context(), queueName)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to delete queue", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ListQueuesHandler handles requests to list all queues.
func (app *App) ListQueuesHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ListQueuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An empty body is acceptable for ListQueues, so we ignore decoding
		// errors and proceed with default values.
	}

	queueNames, newNextToken, err := app.Store.ListQueues(r.Context(), req.MaxResults, req.NextToken, req.QueueNamePrefix)
	if err != nil {
		app.sendErrorResponse(w, "InternalFailure", "Failed to list queues", http.StatusInternalServerError)
		return
	}

	// SQS limits the result to 1000 queues if MaxResults is not specified.
	if req.MaxResults == 0 && len(queueNames) > 1000 {
		queueNames = queueNames[:1000]
	}

	// The engine returns queue names; the handler is responsible for
	// constructing the full queue URLs for the response.
	queueURLs := make([]string, len(queueNames))
	for i, name := range queueNames {
		queueURLs[i] = queueURL(r, name)
	}

	resp := models.ListQueuesResponse{
		QueueUrls: queueURLs,
		NextToken: newNextToken,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetQueueUrlHandler handles requests to resolve a queue name into its URL.
func (app *App) GetQueueUrlHandler(w http.ResponseWriter, r *http.Request) {
	var req models.GetQueueURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueName == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueName.", http.StatusBadRequest)
		return
	}

	name, err := app.Store.GetQueueURL(r.Context(), req.QueueName)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to get queue URL", http.StatusInternalServerError)
		return
	}

	resp := models.GetQueueURLResponse{QueueUrl: queueURL(r, name)}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetQueueAttributesHandler handles requests to read a queue's configuration
// and approximate message counts.
func (app *App) GetQueueAttributesHandler(w http.ResponseWriter, r *http.Request) {
	var req models.GetQueueAttributesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	attrs, err := app.Store.GetQueueAttributes(r.Context(), queueName)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to get queue attributes", http.StatusInternalServerError)
		return
	}

	// Filter to the requested attribute names unless "All" (or nothing) was asked for.
	wantAll := len(req.AttributeNames) == 0
	for _, name := range req.AttributeNames {
		if name == "All" {
			wantAll = true
			break
		}
	}
	if !wantAll {
		filtered := make(map[string]string, len(req.AttributeNames))
		for _, name := range req.AttributeNames {
			if val, ok := attrs[name]; ok {
				filtered[name] = val
			}
		}
		attrs = filtered
	}

	resp := models.GetQueueAttributesResponse{Attributes: attrs}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// SetQueueAttributesHandler handles requests to update a queue's configuration.
// Supplied attributes are merged; unspecified attributes retain their previous values.
func (app *App) SetQueueAttributesHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SetQueueAttributesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	if err := validateAttributes(req.Attributes); err != nil {
		app.sendErrorResponse(w, "InvalidAttributeName", err.Error(), http.StatusBadRequest)
		return
	}

	err := app.Store.SetQueueAttributes(r.Context(), queueName, req.Attributes)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		if errors.Is(err, store.ErrInvalidAttributeValue) {
			app.sendErrorResponse(w, "InvalidAttributeValue", err.Error(), http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to set queue attributes", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// PurgeQueueHandler handles requests to delete all messages from a queue.
func (app *App) PurgeQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PurgeQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	err := app.Store.PurgeQueue(r.Context(), queueName)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		// This error enforces the SQS rule that you can't purge a queue more
		// than once every 60 seconds.
		if errors.Is(err, store.ErrPurgeQueueInProgress) {
			app.sendErrorResponse(w, "PurgeQueueInProgress", "Indicates that the specified queue previously received a PurgeQueue request within the last 60 seconds.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to purge queue", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// --- Tagging Handlers ---

// TagQueueHandler handles requests to add tags to a queue.
func (app *App) TagQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TagQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}

	if err := app.Store.TagQueue(r.Context(), path.Base(req.QueueUrl), req.Tags); err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to tag queue", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// UntagQueueHandler handles requests to remove tags from a queue.
func (app *App) UntagQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UntagQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}

	if err := app.Store.UntagQueue(r.Context(), path.Base(req.QueueUrl), req.TagKeys); err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to untag queue", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ListQueueTagsHandler handles requests to list a queue's tags.
func (app *App) ListQueueTagsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ListQueueTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}

	tags, err := app.Store.ListQueueTags(r.Context(), path.Base(req.QueueUrl))
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to list queue tags", http.StatusInternalServerError)
		return
	}

	resp := models.ListQueueTagsResponse{Tags: tags}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- Message Management Handlers ---

// SendMessageHandler handles requests to send a single message to a queue.
func (app *App) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	// The protocol caps message bodies at 256 KiB; per-queue MaximumMessageSize
	// is enforced by the engine.
	if len(req.MessageBody) < 1 || len(req.MessageBody) > 256*1024 {
		app.sendErrorResponse(w, "InvalidParameterValue", "The message body must be between 1 and 262144 bytes long.", http.StatusBadRequest)
		return
	}

	if req.DelaySeconds != nil {
		if *req.DelaySeconds < 0 || *req.DelaySeconds > 900 {
			app.sendErrorResponse(w, "InvalidParameterValue", "Value for parameter DelaySeconds is invalid. Reason: Must be an integer from 0 to 900.", http.StatusBadRequest)
			return
		}
	}

	resp, err := app.Store.SendMessage(r.Context(), queueName, &req)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		if errors.Is(err, store.ErrMessageTooLarge) {
			app.sendErrorResponse(w, "InvalidParameterValue", err.Error(), http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to send message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// validateBatchEntryIds checks that a batch is non-empty, within the entry
// limit, and uses distinct well-formed entry IDs. It writes the error response
// itself and reports whether the caller may proceed.
func (app *App) validateBatchEntryIds(w http.ResponseWriter, ids []string) bool {
	if len(ids) == 0 {
		app.sendErrorResponse(w, "EmptyBatchRequest", "The batch request doesn't contain any entries.", http.StatusBadRequest)
		return false
	}
	if len(ids) > 10 {
		app.sendErrorResponse(w, "TooManyEntriesInBatchRequest", "The batch request contains more entries than permissible.", http.StatusBadRequest)
		return false
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, exists := seen[id]; exists {
			app.sendErrorResponse(w, "BatchEntryIdsNotDistinct", "Two or more batch entries in the request have the same Id.", http.StatusBadRequest)
			return false
		}
		seen[id] = struct{}{}
		if id == "" || len(id) > 80 || !isValidSqsChars(id) {
			app.sendErrorResponse(w, "InvalidBatchEntryId", "The Id of a batch entry in a batch request doesn't abide by the specification.", http.StatusBadRequest)
			return false
		}
	}
	return true
}

// SendMessageBatchHandler handles requests to send up to 10 messages in a single call.
func (app *App) SendMessageBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	ids := make([]string, len(req.Entries))
	totalPayloadSize := 0
	for i, entry := range req.Entries {
		ids[i] = entry.Id
		totalPayloadSize += len(entry.MessageBody)
	}
	if !app.validateBatchEntryIds(w, ids) {
		return
	}

	// The combined payload of a batch is bounded by the same 256 KiB limit as
	// a single message.
	if totalPayloadSize > 256*1024 {
		app.sendErrorResponse(w, "BatchRequestTooLong", "The length of all the messages put together is more than the limit.", http.StatusBadRequest)
		return
	}

	// Each entry gets the same per-message validation as SendMessage. An
	// invalid entry fails individually; its siblings still go through.
	valid := make([]models.SendMessageBatchRequestEntry, 0, len(req.Entries))
	var rejected []models.BatchResultErrorEntry
	for _, entry := range req.Entries {
		switch {
		case len(entry.MessageBody) < 1 || len(entry.MessageBody) > 256*1024:
			rejected = append(rejected, models.BatchResultErrorEntry{
				Id:          entry.Id,
				Code:        "InvalidParameterValue",
				Message:     "The message body must be between 1 and 262144 bytes long.",
				SenderFault: true,
			})
		case entry.DelaySeconds != nil && (*entry.DelaySeconds < 0 || *entry.DelaySeconds > 900):
			rejected = append(rejected, models.BatchResultErrorEntry{
				Id:          entry.Id,
				Code:        "InvalidParameterValue",
				Message:     "Value for parameter DelaySeconds is invalid. Reason: Must be an integer from 0 to 900.",
				SenderFault: true,
			})
		default:
			valid = append(valid, entry)
		}
	}
	req.Entries = valid

	resp, err := app.Store.SendMessageBatch(r.Context(), queueName, &req)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to send message batch", http.StatusInternalServerError)
		return
	}
	resp.Failed = append(resp.Failed, rejected...)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ReceiveMessageHandler handles requests to retrieve messages from a queue.
// Long polling happens inside the engine; the handler just validates and waits
// for the call to return.
func (app *App) ReceiveMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ReceiveMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	// MaxNumberOfMessages must be between 1 and 10 when supplied; SQS defaults
	// to 1 if the parameter is absent. An explicit zero is rejected.
	if req.MaxNumberOfMessages != nil && (*req.MaxNumberOfMessages < 1 || *req.MaxNumberOfMessages > 10) {
		app.sendErrorResponse(w, "InvalidParameterValue", "Value for parameter MaxNumberOfMessages is invalid. Reason: Must be an integer from 1 to 10.", http.StatusBadRequest)
		return
	}

	// WaitTimeSeconds enables long polling and must be between 0 and 20.
	if req.WaitTimeSeconds != nil && (*req.WaitTimeSeconds < 0 || *req.WaitTimeSeconds > 20) {
		app.sendErrorResponse(w, "InvalidParameterValue", "Value for parameter WaitTimeSeconds is invalid. Reason: Must be an integer from 0 to 20.", http.StatusBadRequest)
		return
	}

	// VisibilityTimeout (if specified) overrides the queue's default.
	if req.VisibilityTimeout != nil && (*req.VisibilityTimeout < 0 || *req.VisibilityTimeout > 43200) {
		app.sendErrorResponse(w, "InvalidParameterValue", "Value for parameter VisibilityTimeout is invalid. Reason: Must be an integer from 0 to 43200.", http.StatusBadRequest)
		return
	}

	resp, err := app.Store.ReceiveMessage(r.Context(), queueName, &req)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to receive messages", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// DeleteMessageHandler handles requests to delete a single message. A stale or
// unknown receipt handle is a reported condition, never fatal to the engine.
func (app *App) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	if req.ReceiptHandle == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a ReceiptHandle.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	err := app.Store.DeleteMessage(r.Context(), queueName, req.ReceiptHandle)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		if errors.Is(err, store.ErrInvalidReceiptHandle) {
			app.sendErrorResponse(w, "ReceiptHandleIsInvalid", "The specified receipt handle isn't valid.", http.StatusNotFound)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to delete message", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteMessageBatchHandler handles requests to delete up to 10 messages in a single call.
func (app *App) DeleteMessageBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteMessageBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	ids := make([]string, len(req.Entries))
	for i, entry := range req.Entries {
		ids[i] = entry.Id
	}
	if !app.validateBatchEntryIds(w, ids) {
		return
	}

	resp, err := app.Store.DeleteMessageBatch(r.Context(), queueName, req.Entries)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to delete message batch", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ChangeMessageVisibilityHandler handles requests to change how long a
// received message stays hidden from other consumers. A timeout of zero
// returns the message to the queue immediately.
func (app *App) ChangeMessageVisibilityHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeMessageVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	if req.ReceiptHandle == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a ReceiptHandle.", http.StatusBadRequest)
		return
	}
	if req.VisibilityTimeout < 0 || req.VisibilityTimeout > 43200 {
		app.sendErrorResponse(w, "InvalidParameterValue", "Value for parameter VisibilityTimeout is invalid. Reason: Must be an integer from 0 to 43200.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	err := app.Store.ChangeMessageVisibility(r.Context(), queueName, req.ReceiptHandle, req.VisibilityTimeout)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		if errors.Is(err, store.ErrInvalidReceiptHandle) {
			app.sendErrorResponse(w, "ReceiptHandleIsInvalid", "The specified receipt handle isn't valid.", http.StatusNotFound)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to change message visibility", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ChangeMessageVisibilityBatchHandler handles requests to change the
// visibility of up to 10 messages in a single call.
func (app *App) ChangeMessageVisibilityBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeMessageVisibilityBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.sendErrorResponse(w, "InvalidRequest", "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QueueUrl == "" {
		app.sendErrorResponse(w, "MissingParameter", "The request must contain a QueueUrl.", http.StatusBadRequest)
		return
	}
	queueName := path.Base(req.QueueUrl)

	ids := make([]string, len(req.Entries))
	for i, entry := range req.Entries {
		ids[i] = entry.Id
		if entry.VisibilityTimeout < 0 || entry.VisibilityTimeout > 43200 {
			app.sendErrorResponse(w, "InvalidParameterValue", fmt.Sprintf("Visibility timeout for entry with Id '%s' is invalid. Reason: Must be an integer from 0 to 43200.", entry.Id), http.StatusBadRequest)
			return
		}
	}
	if !app.validateBatchEntryIds(w, ids) {
		return
	}

	resp, err := app.Store.ChangeMessageVisibilityBatch(r.Context(), queueName, req.Entries)
	if err != nil {
		if errors.Is(err, store.ErrQueueDoesNotExist) {
			app.sendErrorResponse(w, "QueueDoesNotExist", "The specified queue does not exist.", http.StatusBadRequest)
			return
		}
		app.sendErrorResponse(w, "InternalFailure", "Failed to change message visibility batch", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
