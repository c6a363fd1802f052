package workers

import (
	"time"

	"go.uber.org/zap"

	"gojedibridge/attestation"
	"gojedibridge/chains"
	"gojedibridge/config"
	"gojedibridge/redis"
)

// Env is what every worker thread shares.
type Env struct {
	Config  *config.Configuration
	Network *chains.Network
	Redis   *redis.Client
	Signer  *attestation.Signer
	Log     *zap.SugaredLogger
}

func (env *Env) scanInterval() time.Duration {
	if env.Config.ScanIntervalSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(env.Config.ScanIntervalSeconds) * time.Second
}
