// Package logger builds the *slog.Logger used across beacon components.
//
// New returns a logger configured by functional options: output format (text
// or json), minimum level, static attributes and ContextExtractor callbacks
// that pull attributes out of a context.Context on every record. The handler
// is wrapped by LogHandlerDecorator which runs the extractors before handing
// the record to the underlying slog handler.
//
// Attribute helpers in attr.go keep key names consistent between the source,
// sink, directory and transport packages:
//
//	log := logger.New(logger.WithDevelopment("beacon-directory"))
//	log.Warn("delivery failed, queued for retry",
//	    logger.Source("Clock"),
//	    logger.SubscriberID(id),
//	    logger.Error(err),
//	)
//
// Error and Errors return an empty attribute for nil errors so they can be
// passed unconditionally.
package logger
