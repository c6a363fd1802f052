package redis

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"

	"gojedibridge/types"
)

// OperationStatusSets index operation record keys by status.
var OperationStatusSets = map[string]string{
	types.StatusAttested: "attestations:attested", // signed, waiting for the relayer
	types.StatusRedeemed: "attestations:redeemed", // minted on destination chain
	types.StatusFailed:   "attestations:failed",   // cannot attest or redeem
}

const swapIndexKey = "attestations:byswap"

func swapField(chainFrom, nonce uint64) string {
	return fmt.Sprintf("%d:%d", chainFrom, nonce)
}

func operationKey(status, id string) string {
	return fmt.Sprintf("attestation:%s:%s", status, id)
}

func validateOperation(op *types.Operation) error {
	if op == nil {
		return errors.New("null object to store")
	}
	if _, ok := OperationStatusSets[op.Status]; !ok {
		return fmt.Errorf("operation has unknown status %q", op.Status)
	}
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	return nil
}

// ClaimSwap reserves the operation id of the swap (chainFrom, nonce), so one
// swap is attested once. When the swap was claimed before it returns the
// existing id and false.
func (c *Client) ClaimSwap(chainFrom, nonce uint64, id string) (string, bool, error) {
	conn := c.pool.Get()
	defer conn.Close()

	field := swapField(chainFrom, nonce)
	claimed, err := redis.Int(conn.Do("HSETNX", swapIndexKey, field, id))
	if err != nil {
		c.log.Errorf("error Redis HSETNX: %s", err)
		return "", false, err
	}
	if claimed == 1 {
		return id, true, nil
	}

	existing, err := redis.String(conn.Do("HGET", swapIndexKey, field))
	if err != nil {
		c.log.Errorf("error Redis HGET: %s", err)
		return "", false, err
	}
	return existing, false, nil
}

// UpsertOperation stores op under its status. Note that multiple sets
// should not contain one operation, use ChangeOperationStatus to move it.
func (c *Client) UpsertOperation(op *types.Operation) error {
	if err := validateOperation(op); err != nil {
		return err
	}

	opJSON, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("cannot marshal operation to JSON: %w", err)
	}

	conn := c.pool.Get()
	defer conn.Close()

	recordKey := operationKey(op.Status, op.ID)
	conn.Send("MULTI")
	conn.Send("SET", recordKey, opJSON)
	conn.Send("SADD", OperationStatusSets[op.Status], recordKey)
	if _, err := conn.Do("EXEC"); err != nil {
		c.log.Errorf("error Redis EXEC: %s", err)
		return err
	}
	return nil
}

// ChangeOperationStatus moves op from prevStatus to op.Status.
func (c *Client) ChangeOperationStatus(op *types.Operation, prevStatus string) error {
	if err := validateOperation(op); err != nil {
		return err
	}
	if _, ok := OperationStatusSets[prevStatus]; !ok {
		return fmt.Errorf("operation has unknown previous status %q", prevStatus)
	}

	opJSON, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("cannot marshal operation to JSON: %w", err)
	}

	conn := c.pool.Get()
	defer conn.Close()

	prevRecordKey := operationKey(prevStatus, op.ID)
	recordKey := operationKey(op.Status, op.ID)

	conn.Send("MULTI")
	conn.Send("SREM", OperationStatusSets[prevStatus], prevRecordKey)
	conn.Send("DEL", prevRecordKey)
	conn.Send("SET", recordKey, opJSON)
	conn.Send("SADD", OperationStatusSets[op.Status], recordKey)
	if _, err := conn.Do("EXEC"); err != nil {
		c.log.Errorf("error Redis EXEC: %s", err)
		return err
	}
	return nil
}

// FindOperationBySwap returns nil when no operation was recorded for the swap.
func (c *Client) FindOperationBySwap(chainFrom, nonce uint64) (*types.Operation, error) {
	conn := c.pool.Get()
	defer conn.Close()

	id, err := redis.String(conn.Do("HGET", swapIndexKey, swapField(chainFrom, nonce)))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for status := range OperationStatusSets {
		op, err := getOperation(conn, operationKey(status, id))
		if err != nil {
			return nil, err
		}
		if op != nil {
			return op, nil
		}
	}
	return nil, nil
}

func getOperation(conn redis.Conn, key string) (*types.Operation, error) {
	opJSON, err := redis.Bytes(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		// a record can be missing when it moved between statuses meanwhile
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var op types.Operation
	if err := json.Unmarshal(opJSON, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// FindOperationStatus returns any one operation having status, or nil.
func (c *Client) FindOperationStatus(status string) (*types.Operation, error) {
	ops, err := c.scanOperations(status, 1)
	if err != nil || len(ops) == 0 {
		return nil, err
	}
	return ops[0], nil
}

func (c *Client) FindAllOperationsByStatus(status string) ([]*types.Operation, error) {
	return c.scanOperations(status, 0)
}

// scanOperations walks the status set; limit 0 means all of them.
func (c *Client) scanOperations(status string, limit int) ([]*types.Operation, error) {
	set, ok := OperationStatusSets[status]
	if !ok {
		return nil, errors.New("redis key not found for status")
	}

	conn := c.pool.Get()
	defer conn.Close()

	ops := make([]*types.Operation, 0)
	var cursor int64

	for {
		values, err := redis.Values(conn.Do("SSCAN", set, cursor))
		if err != nil {
			return nil, err
		}

		var opKeys []string
		if _, err := redis.Scan(values, &cursor, &opKeys); err != nil {
			return nil, err
		}

		for _, key := range opKeys {
			op, err := getOperation(conn, key)
			if err != nil {
				c.log.Errorf("error Redis GET %s: %s", key, err)
				return nil, err
			}
			if op == nil || op.Status != status {
				continue
			}
			ops = append(ops, op)
			if limit > 0 && len(ops) >= limit {
				return ops, nil
			}
		}

		if cursor == 0 {
			break
		}
	}

	return ops, nil
}
