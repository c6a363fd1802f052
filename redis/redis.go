package redis

import (
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
)

// Client wraps a redigo pool shared by every chain store and the workers.
type Client struct {
	pool *redis.Pool
	log  *zap.SugaredLogger
}

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func New(host string, port int, logger *zap.SugaredLogger) *Client {
	return NewAddr(fmt.Sprintf("%s:%d", host, port), logger)
}

func NewAddr(redisAddr string, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{
		pool: &redis.Pool{
			MaxIdle: 5,
			Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
		},
		log: logger,
	}
}

func (c *Client) Close() error {
	return c.pool.Close()
}

// Ping checks the connection, without persistence the service should not start.
func (c *Client) Ping() error {
	conn := c.pool.Get()
	defer conn.Close()

	_, err := conn.Do("PING")
	return err
}

func scannedKey(chainID uint64) string {
	return fmt.Sprintf("validator:%d:scanned", chainID)
}

// GetScannedNonce returns the last swap nonce the validator processed on
// chainID, or -1 when it has not processed any.
func (c *Client) GetScannedNonce(chainID uint64) (int64, error) {
	conn := c.pool.Get()
	defer conn.Close()

	nonce, err := redis.Int64(conn.Do("GET", scannedKey(chainID)))
	if err == nil {
		return nonce, nil
	}

	if errors.Is(err, redis.ErrNil) {
		return -1, nil
	}

	c.log.Errorf("error Redis get: %s", err)
	return -1, err
}

func (c *Client) SetScannedNonce(chainID uint64, nonce uint64) error {
	conn := c.pool.Get()
	defer conn.Close()

	_, err := conn.Do("SET", scannedKey(chainID), nonce)
	if err != nil {
		c.log.Errorf("error Redis set: %s", err)
		return err
	}

	return nil
}
