// Package models contains the data structures used throughout the application.
// These structures define the shape of API requests and responses, as well as the
// internal representation of messages held by the queue engine.
package models

import "time"

// CreateQueueRequest maps to the input of the SQS CreateQueue action.
// It includes the queue name and any attributes (like VisibilityTimeout) or tags.
type CreateQueueRequest struct {
	// QueueName is the name of the queue to be created.
	QueueName string `json:"QueueName"`
	// Attributes is a map of attributes for the queue (e.g., "VisibilityTimeout").
	Attributes map[string]string `json:"Attributes"`
	// Tags is a map of key-value pairs to attach to the queue.
	Tags map[string]string `json:"tags"`
}

// CreateQueueResponse maps to the output of a successful SQS CreateQueue action.
type CreateQueueResponse struct {
	// QueueURL is the URL of the created queue.
	QueueURL string `json:"QueueUrl"`
}

// ListQueuesRequest defines the parameters for the SQS ListQueues action.
// It supports pagination (MaxResults, NextToken) and filtering by prefix.
type ListQueuesRequest struct {
	// MaxResults is the maximum number of results to return in a single call.
	MaxResults int `json:"MaxResults"`
	// NextToken is the token to retrieve the next page of results.
	NextToken string `json:"NextToken"`
	// QueueNamePrefix is an optional filter to list only queues starting with this prefix.
	QueueNamePrefix string `json:"QueueNamePrefix"`
}

// ListQueuesResponse defines the structure for the SQS ListQueues action's output.
type ListQueuesResponse struct {
	// QueueUrls is a list of URLs of the queues that match the request.
	QueueUrls []string `json:"QueueUrls"`
	// NextToken is the token to use for the next ListQueues request.
	NextToken string `json:"NextToken,omitempty"`
}

// GetQueueAttributesRequest defines the parameters for the SQS GetQueueAttributes action.
type GetQueueAttributesRequest struct {
	// QueueUrl is the URL of the queue to retrieve attributes for.
	QueueUrl string `json:"QueueUrl"`
	// AttributeNames is a list of attributes to retrieve (e.g., "All", "VisibilityTimeout").
	AttributeNames []string `json:"AttributeNames"`
}

// GetQueueAttributesResponse defines the structure for the SQS GetQueueAttributes action's output.
type GetQueueAttributesResponse struct {
	// Attributes is a map of the requested queue attributes.
	Attributes map[string]string `json:"Attributes"`
}

// SendMessageRequest maps to the input of the SQS SendMessage action.
type SendMessageRequest struct {
	// DelaySeconds is the number of seconds to delay the message (0-900).
	// When nil, the queue's default DelaySeconds applies.
	DelaySeconds *int32 `json:"DelaySeconds,omitempty"`
	// MessageBody is the body of the message.
	MessageBody string `json:"MessageBody"`
	// QueueUrl is the URL of the queue to send the message to.
	QueueUrl string `json:"QueueUrl"`
}

// SendMessageResponse maps to the output of a successful SQS SendMessage action.
type SendMessageResponse struct {
	// MD5OfMessageBody is the MD5 digest of the message body.
	MD5OfMessageBody string `json:"MD5OfMessageBody"`
	// MessageId is the unique identifier for the sent message.
	MessageId string `json:"MessageId"`
}

// Message is the internal representation of a message within the queue engine.
// It combines the public SQS fields with delivery state: the point in time at
// which the message next becomes eligible (DeliveryTime), how many times it has
// been delivered (ReceiveCount), and the receipt handle of the most recent
// delivery attempt. This struct is not directly exposed via the API.
//
// A message is eligible for delivery iff DeliveryTime is not after the current
// clock reading. Immediately after send that is sentTime+delay; after each
// receive it is receiveTime+visibilityTimeout. The same comparison therefore
// covers both the delayed and the in-flight state, and expiry needs no timer.
type Message struct {
	ID        string
	Body      string
	MD5OfBody string
	// SequenceNumber strictly increases per send within one queue and breaks
	// ties between messages with identical DeliveryTime.
	SequenceNumber int64
	// DeliveryTime is the instant at which the message becomes eligible for receipt.
	DeliveryTime time.Time
	// ReceiptHandle is the opaque token of the current delivery attempt.
	// Empty until the first receive; replaced on every redelivery.
	ReceiptHandle string
	// ReceiveCount tracks the number of times the message has been delivered.
	ReceiveCount  int
	SentAt        time.Time
	FirstReceived time.Time
}

// DeleteQueueRequest defines the parameters for the SQS DeleteQueue action.
type DeleteQueueRequest struct {
	// QueueUrl is the URL of the queue to delete.
	QueueUrl string `json:"QueueUrl"`
}

// PurgeQueueRequest defines the parameters for the SQS PurgeQueue action.
type PurgeQueueRequest struct {
	// QueueUrl is the URL of the queue to purge.
	QueueUrl string `json:"QueueUrl"`
}

// ReceiveMessageRequest maps to the input of the SQS ReceiveMessage action.
// It allows callers to specify how many messages to get, how long to wait
// (long polling), and how long the messages should be hidden from other
// consumers (VisibilityTimeout).
type ReceiveMessageRequest struct {
	// MaxNumberOfMessages is the maximum number of messages to return (1-10).
	// When nil, the SQS default of 1 applies; an explicit zero is invalid.
	MaxNumberOfMessages *int `json:"MaxNumberOfMessages,omitempty"`
	// QueueUrl is the URL of the queue to receive messages from.
	QueueUrl string `json:"QueueUrl"`
	// VisibilityTimeout is the duration (in seconds) that the received messages
	// are hidden from subsequent retrieve requests. When nil, the queue's
	// default applies; an explicit zero makes the messages immediately
	// receivable again.
	VisibilityTimeout *int `json:"VisibilityTimeout,omitempty"`
	// WaitTimeSeconds is the duration (in seconds) for which the call waits for
	// a message to arrive in the queue before returning. When nil, the queue's
	// ReceiveMessageWaitTimeSeconds applies.
	WaitTimeSeconds *int `json:"WaitTimeSeconds,omitempty"`
}

// ReceiveMessageResponse defines the structure for the SQS ReceiveMessage action's output.
type ReceiveMessageResponse struct {
	// Messages is the list of messages received.
	Messages []ResponseMessage `json:"Messages"`
}

// ResponseMessage represents a single message as returned to the client from a
// ReceiveMessage call. It includes a ReceiptHandle, which is a temporary token
// required to delete or modify the message.
type ResponseMessage struct {
	// Attributes carries system attributes such as ApproximateReceiveCount.
	Attributes map[string]string `json:"Attributes"`
	// Body is the body of the message.
	Body string `json:"Body"`
	// MD5OfBody is the MD5 digest of the message body.
	MD5OfBody string `json:"MD5OfBody"`
	// MessageId is the unique identifier of the message.
	MessageId string `json:"MessageId"`
	// ReceiptHandle is the token used to delete or change the visibility of the message.
	ReceiptHandle string `json:"ReceiptHandle"`
}

// DeleteMessageRequest defines the parameters for the SQS DeleteMessage action.
type DeleteMessageRequest struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
	// ReceiptHandle is the handle associated with the message to delete.
	ReceiptHandle string `json:"ReceiptHandle"`
}

// ChangeMessageVisibilityRequest defines the parameters for the SQS ChangeMessageVisibility action.
type ChangeMessageVisibilityRequest struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
	// ReceiptHandle is the handle associated with the message.
	ReceiptHandle string `json:"ReceiptHandle"`
	// VisibilityTimeout is the new value for the message's visibility timeout (in seconds).
	// Zero makes the message immediately eligible again.
	VisibilityTimeout int `json:"VisibilityTimeout"`
}

// ErrorResponse defines the standard AWS JSON error response format.
// This ensures that clients interacting with this service can parse errors in a familiar way.
type ErrorResponse struct {
	// Type is the error code (e.g., "InvalidParameterValue").
	Type string `json:"__type"`
	// Message is the descriptive error message.
	Message string `json:"message"`
}

// --- Batch Operation Models ---

// SendMessageBatchRequest defines the parameters for the SQS SendMessageBatch action.
type SendMessageBatchRequest struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
	// Entries is a list of SendMessageBatchRequestEntry items.
	Entries []SendMessageBatchRequestEntry `json:"Entries"`
}

// SendMessageBatchRequestEntry defines a single message within a batch send request.
// Each entry has a unique ID within the batch for correlating results.
type SendMessageBatchRequestEntry struct {
	// Id is a unique identifier for the entry within the batch.
	Id string `json:"Id"`
	// MessageBody is the body of the message.
	MessageBody string `json:"MessageBody"`
	// DelaySeconds is the number of seconds to delay the message.
	DelaySeconds *int32 `json:"DelaySeconds,omitempty"`
}

// SendMessageBatchResponse defines the structure for the SQS SendMessageBatch action's output.
// It separates results into successful and failed entries.
type SendMessageBatchResponse struct {
	// Successful is a list of entries that were successfully sent.
	Successful []SendMessageBatchResultEntry `json:"Successful"`
	// Failed is a list of entries that failed to be sent.
	Failed []BatchResultErrorEntry `json:"Failed"`
}

// SendMessageBatchResultEntry contains the details of a successfully sent message in a batch.
type SendMessageBatchResultEntry struct {
	// Id is the identifier of the message in the batch request.
	Id string `json:"Id"`
	// MessageId is the unique identifier assigned to the message.
	MessageId string `json:"MessageId"`
	// MD5OfMessageBody is the MD5 digest of the message body.
	MD5OfMessageBody string `json:"MD5OfMessageBody"`
}

// BatchResultErrorEntry contains the details of a failed message in a batch operation.
// A failure in one entry never aborts its siblings.
type BatchResultErrorEntry struct {
	// Id is the identifier of the message in the batch request.
	Id string `json:"Id"`
	// Code is the error code.
	Code string `json:"Code"`
	// Message is a description of the error.
	Message string `json:"Message"`
	// SenderFault indicates whether the error was due to the sender's request.
	SenderFault bool `json:"SenderFault"`
}

// DeleteMessageBatchRequest defines the parameters for the SQS DeleteMessageBatch action.
type DeleteMessageBatchRequest struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
	// Entries is a list of DeleteMessageBatchRequestEntry items.
	Entries []DeleteMessageBatchRequestEntry `json:"Entries"`
}

// DeleteMessageBatchRequestEntry defines a single message to be deleted in a batch.
type DeleteMessageBatchRequestEntry struct {
	// Id is a unique identifier for the entry within the batch.
	Id string `json:"Id"`
	// ReceiptHandle is the handle associated with the message to delete.
	ReceiptHandle string `json:"ReceiptHandle"`
}

// DeleteMessageBatchResponse defines the structure for the SQS DeleteMessageBatch action's output.
type DeleteMessageBatchResponse struct {
	// Successful is a list of entries that were successfully deleted.
	Successful []DeleteMessageBatchResultEntry `json:"Successful"`
	// Failed is a list of entries that failed to be deleted.
	Failed []BatchResultErrorEntry `json:"Failed"`
}

// DeleteMessageBatchResultEntry contains the ID of a successfully deleted message in a batch.
type DeleteMessageBatchResultEntry struct {
	// Id is the identifier of the message in the batch request.
	Id string `json:"Id"`
}

// SetQueueAttributesRequest defines the parameters for the SQS SetQueueAttributes action.
type SetQueueAttributesRequest struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
	// Attributes is a map of attributes to set. Unspecified attributes retain
	// their previous values.
	Attributes map[string]string `json:"Attributes"`
}

// GetQueueURLRequest defines the parameters for the SQS GetQueueUrl action.
type GetQueueURLRequest struct {
	// QueueName is the name of the queue.
	QueueName string `json:"QueueName"`
}

// GetQueueURLResponse defines the structure for the SQS GetQueueUrl action's output.
type GetQueueURLResponse struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
}

// ChangeMessageVisibilityBatchRequest defines the parameters for the SQS ChangeMessageVisibilityBatch action.
type ChangeMessageVisibilityBatchRequest struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
	// Entries is a list of ChangeMessageVisibilityBatchRequestEntry items.
	Entries []ChangeMessageVisibilityBatchRequestEntry `json:"Entries"`
}

// ChangeMessageVisibilityBatchRequestEntry defines a single entry in a ChangeMessageVisibilityBatch request.
type ChangeMessageVisibilityBatchRequestEntry struct {
	// Id is a unique identifier for the entry within the batch.
	Id string `json:"Id"`
	// ReceiptHandle is the handle associated with the message.
	ReceiptHandle string `json:"ReceiptHandle"`
	// VisibilityTimeout is the new visibility timeout in seconds.
	VisibilityTimeout int `json:"VisibilityTimeout"`
}

// ChangeMessageVisibilityBatchResponse defines the structure for the SQS ChangeMessageVisibilityBatch action's output.
type ChangeMessageVisibilityBatchResponse struct {
	// Successful is a list of entries that were successfully processed.
	Successful []ChangeMessageVisibilityBatchResultEntry `json:"Successful"`
	// Failed is a list of entries that failed.
	Failed []BatchResultErrorEntry `json:"Failed"`
}

// ChangeMessageVisibilityBatchResultEntry contains the ID of a successfully changed message in a batch.
type ChangeMessageVisibilityBatchResultEntry struct {
	// Id is the identifier of the message in the batch request.
	Id string `json:"Id"`
}

// ListQueueTagsRequest defines the parameters for the SQS ListQueueTags action.
type ListQueueTagsRequest struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
}

// ListQueueTagsResponse defines the structure for the SQS ListQueueTags action's output.
type ListQueueTagsResponse struct {
	// Tags is a map of the queue's tags.
	Tags map[string]string `json:"Tags"`
}

// TagQueueRequest defines the parameters for the SQS TagQueue action.
type TagQueueRequest struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
	// Tags is a map of tags to add to the queue.
	Tags map[string]string `json:"Tags"`
}

// UntagQueueRequest defines the parameters for the SQS UntagQueue action.
type UntagQueueRequest struct {
	// QueueUrl is the URL of the queue.
	QueueUrl string `json:"QueueUrl"`
	// TagKeys is a list of tag keys to remove.
	TagKeys []string `json:"TagKeys"`
}
