// Package broadcast provides the latest-value notification primitive that
// connects report publishing to live subscribers.
//
// This package is internal to reportcast. It implements a single-writer,
// multi-reader broadcast where exactly one "latest" payload is retained:
// each publish replaces the previous payload and wakes every subscriber
// currently waiting, and a subscriber that joins late immediately observes
// the most recent payload without waiting for a fresh publish.
//
// The main components are:
//
//   - [Broadcaster]: holds the latest payload and fans out publishes
//   - [Subscription]: one subscriber's handle, with a blocking Next
//   - [Registry]: tracks active subscriptions for census and fan-out
//
// Delivery is intentionally coalescing: a subscriber that is slow relative
// to the publish rate observes only the newest payload per wake, never a
// backlog. The broadcaster communicates "the latest report is now X", not
// "N reports happened". Publish never blocks on subscriber I/O.
package broadcast
