// Package notify delivers activation codes to users out of band.
//
// The Notifier port has three implementations that compose:
//   - SMSClient posts to an HTTP SMS gateway
//   - LogNotifier writes the code to the log (development only)
//   - Retrying and Instrumented decorate any Notifier
//
// Failures are reported as *DeliveryError. Retryable ones (network errors,
// gateway 5xx and 429) may succeed later; everything else is final.
package notify
