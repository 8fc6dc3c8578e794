// Package notifications delivers capture outcomes to the user.
//
// The ntfy implementation publishes to the topic configured in config.toml
// and degrades to a no-op when no topic is set. Fanout combines it with the
// browser notifier exposed by the native host so one capture outcome reaches
// every configured channel.
package notifications
