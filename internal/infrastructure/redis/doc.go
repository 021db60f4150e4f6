// Package redis provides Redis connectivity for Device Pulse.
//
// It wraps go-redis client construction with the connection and health
// check patterns used by the other infrastructure packages. Higher-level
// cache semantics (status records, alert cooldown state) live in the
// statecache package; this package only manages the connection.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
package redis
