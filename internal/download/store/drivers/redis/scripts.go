package redis

import goredis "github.com/redis/go-redis/v9"

// KEYS[1] token hash key, KEYS[2] expiry index.
// ARGV[1] fingerprint, ARGV[2] expires_at ms, ARGV[3] pexpireat ms, ARGV[4..] field/value pairs.
var createTokenScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 4))
redis.call('PEXPIREAT', KEYS[1], ARGV[3])
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
return 1
`)

// KEYS[1] token hash key, KEYS[2] used set.
// ARGV[1] now ms, ARGV[2] fingerprint.
// Returns 1 marked, 0 used or expired, -1 missing.
var markUsedScript = goredis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'used', 'expires_at')
if not v[2] then
  return -1
end
if v[1] == '1' or tonumber(ARGV[1]) >= tonumber(v[2]) then
  return 0
end
redis.call('HSET', KEYS[1], 'used', '1', 'used_at', ARGV[1])
redis.call('SADD', KEYS[2], ARGV[2])
return 1
`)

// KEYS[1] expiry index, KEYS[2] used set.
// ARGV[1] now ms, ARGV[2] token key prefix.
// Token hash keys are derived from the indexes, so this needs a single node.
var sweepTokensScript = goredis.NewScript(`
local n = 0
local function drop(h)
  n = n + redis.call('DEL', ARGV[2] .. h)
  redis.call('ZREM', KEYS[1], h)
  redis.call('SREM', KEYS[2], h)
end
for _, h in ipairs(redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])) do
  drop(h)
end
for _, h in ipairs(redis.call('SMEMBERS', KEYS[2])) do
  drop(h)
end
return n
`)

// KEYS[1] subscription key, KEYS[2] active index.
// ARGV[1] now ms, ARGV[2] user id. Returns -1 when missing.
var deactivateScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
redis.call('HSET', KEYS[1], 'active', '0', 'updated_at', ARGV[1])
redis.call('ZREM', KEYS[2], ARGV[2])
return 1
`)

// KEYS[1] active index. ARGV[1] now ms, ARGV[2] subscription key prefix.
var deactivateExpiredScript = goredis.NewScript(`
local n = 0
for _, uid in ipairs(redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])) do
  redis.call('HSET', ARGV[2] .. uid, 'active', '0', 'updated_at', ARGV[1])
  redis.call('ZREM', KEYS[1], uid)
  n = n + 1
end
return n
`)
