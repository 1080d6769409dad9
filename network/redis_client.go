package network

import (
	"encoding/json"
	"fmt"

	"github.com/APTrust/integrity-services/constants"
	"github.com/APTrust/integrity-services/models/integrity"
	"github.com/go-redis/redis/v7"
)

// RedisClient stores trusted baselines, recent violation history
// and the last published posture.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(address, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisClient) Ping() (string, error) {
	return c.client.Ping().Result()
}

func (c *RedisClient) Close() error {
	return c.client.Close()
}

// BaselineGet returns the identifier -> digest hash stored at key.
// A missing key yields an empty map, not an error.
func (c *RedisClient) BaselineGet(key string) (map[string]string, error) {
	digests, err := c.client.HGetAll(key).Result()
	if err != nil {
		return nil, fmt.Errorf("BaselineGet (%s): %s", key, err.Error())
	}
	return digests, nil
}

// BaselineSave replaces the baseline hash at key with digests in a
// single transaction, so readers never see a half-written baseline.
func (c *RedisClient) BaselineSave(key string, digests map[string]string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(key)
	for identifier, digest := range digests {
		pipe.HSet(key, identifier, digest)
	}
	_, err := pipe.Exec()
	if err != nil {
		return fmt.Errorf("BaselineSave (%s): %s", key, err.Error())
	}
	return nil
}

// ViolationSave pushes v onto the front of the violation history and
// trims the history to the limit most recent entries.
func (c *RedisClient) ViolationSave(v *integrity.Violation, limit int) error {
	jsonData, err := v.ToJSON()
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.LPush(constants.RedisKeyViolations, jsonData)
	if limit > 0 {
		pipe.LTrim(constants.RedisKeyViolations, 0, int64(limit-1))
	}
	_, err = pipe.Exec()
	if err != nil {
		return fmt.Errorf("ViolationSave (%s): %s", v.Identifier, err.Error())
	}
	return nil
}

// ViolationList returns up to count violations, most recent first.
func (c *RedisClient) ViolationList(count int) ([]*integrity.Violation, error) {
	if count <= 0 {
		return make([]*integrity.Violation, 0), nil
	}
	items, err := c.client.LRange(constants.RedisKeyViolations, 0, int64(count-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("ViolationList: %s", err.Error())
	}
	violations := make([]*integrity.Violation, 0, len(items))
	for _, item := range items {
		v, err := integrity.ViolationFromJSON(item)
		if err != nil {
			return nil, fmt.Errorf("ViolationList: bad record: %s", err.Error())
		}
		violations = append(violations, v)
	}
	return violations, nil
}

func (c *RedisClient) PostureSave(posture integrity.Posture) error {
	jsonData, err := posture.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.client.Set(constants.RedisKeyPosture, jsonData, 0).Result()
	return err
}

// PostureGet returns the last saved posture, or nil if none has
// been saved.
func (c *RedisClient) PostureGet() (*integrity.Posture, error) {
	data, err := c.client.Get(constants.RedisKeyPosture).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("PostureGet: %s", err.Error())
	}
	posture := &integrity.Posture{}
	if err = json.Unmarshal([]byte(data), posture); err != nil {
		return nil, err
	}
	return posture, nil
}
