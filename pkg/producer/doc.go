// Package producer drives sources with periodic work.
//
// Loop runs a Step on a ticker and keeps going when the step fails or
// panics; only the context (or too many consecutive failures, when
// configured) stops it. Clock and Frames build steps for the two stock
// producers: a clock publishing the current time and a streamer cycling
// through raw frames.
//
//	clock, _ := source.New[time.Time]("Clock")
//	err := producer.Loop(ctx, time.Second, producer.Clock(clock, nil))
package producer
