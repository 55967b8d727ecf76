package config

import "time"

// Notification delivery modes.
const (
    NotifyDirect = "direct" // send email/SMS from the dispatching process
    NotifyQueue  = "queue"  // hand jobs to RabbitMQ and deliver from the consumer
)

// MonitorConfig tunes the realtime monitoring loop.
//
//   DENSITY_INTERVAL        sampling period of a running density feed (2s)
//   DENSITY_BATCH_SIZE      points per density batch (25)
//   BOTTLENECK_COOLDOWN     minimum gap between bottleneck alerts per event (30s, 0 disables)
//   CLIENT_BUFFER           queued push messages per realtime client (64)
//   REALTIME_REQUIRE_TOKEN  require ?token= on realtime connections (false)
//   NOTIFY_MODE             direct or queue (direct)
type MonitorConfig struct {
    DensityInterval      time.Duration
    DensityBatchSize     int
    BottleneckCooldown   time.Duration
    ClientBuffer         int
    RealtimeRequireToken bool
    NotifyMode           string
}

// LoadMonitorConfig reads the monitor settings, clamping nonsense values to
// their defaults.
func LoadMonitorConfig() MonitorConfig {
    cfg := MonitorConfig{
        DensityInterval:      envDur("DENSITY_INTERVAL", 2*time.Second),
        DensityBatchSize:     envInt("DENSITY_BATCH_SIZE", 25),
        BottleneckCooldown:   envDur("BOTTLENECK_COOLDOWN", 30*time.Second),
        ClientBuffer:         envInt("CLIENT_BUFFER", 64),
        RealtimeRequireToken: envBool("REALTIME_REQUIRE_TOKEN", false),
        NotifyMode:           envStr("NOTIFY_MODE", NotifyDirect),
    }
    if cfg.DensityInterval <= 0 { cfg.DensityInterval = 2 * time.Second }
    if cfg.DensityBatchSize < 1 { cfg.DensityBatchSize = 25 }
    if cfg.BottleneckCooldown < 0 { cfg.BottleneckCooldown = 0 }
    if cfg.ClientBuffer < 1 { cfg.ClientBuffer = 64 }
    if cfg.NotifyMode != NotifyQueue { cfg.NotifyMode = NotifyDirect }
    return cfg
}
