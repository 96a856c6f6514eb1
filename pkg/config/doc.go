// Package config loads relaymux YAML configuration files.
//
// A file names the default relays, the batching interval and a list of
// subscriptions, each with its filters:
//
//	relays:
//	  - wss://relay.example.com
//	batching_interval: 500ms
//	log_level: info
//	protocol_log: session.rlog
//	timeout: 30s
//	subscriptions:
//	  - id: notes
//	    filters:
//	      - kinds: [1]
//	        authors: ["<64 hex chars>"]
//	        tags:
//	          t: [golang]
//	        since: 2024-01-01T00:00:00Z
//	        limit: 50
//	  - id: profile
//	    force: true
//	    relays: [wss://other.example.com]
//	    filters:
//	      - kinds: [0]
//
// Timestamps accept unix seconds or RFC 3339. Durations use Go syntax.
package config
