package redis

import "github.com/redis/go-redis/v9"

// Multi-key steps run as scripts so no other client sees them half done.

// KEYS: entries hash, pool list. ARGV: connection ID, entry JSON.
var enqueueScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call('RPUSH', KEYS[2], ARGV[1])
return 1
`)

// KEYS: entries hash, pool list. Returns the entry JSON or nil.
var dequeueScript = redis.NewScript(`
local id = redis.call('LPOP', KEYS[2])
if not id then
	return false
end
local data = redis.call('HGET', KEYS[1], id)
redis.call('HDEL', KEYS[1], id)
return data
`)

// KEYS: entries hash, pool list. ARGV: connection ID.
var removeWaitingScript = redis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('LREM', KEYS[2], 0, ARGV[1])
return 1
`)

// KEYS: match, conn A index, conn B index, matches set. ARGV: match JSON, match ID.
var createMatchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 or redis.call('EXISTS', KEYS[3]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
redis.call('SET', KEYS[3], ARGV[2])
redis.call('SADD', KEYS[4], ARGV[2])
return 1
`)

// KEYS: match, conn A index, conn B index, matches set. ARGV: match ID.
// Index entries are only dropped while they still point at this match.
var removeMatchScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[4], ARGV[1])
for i = 2, 3 do
	if redis.call('GET', KEYS[i]) == ARGV[1] then
		redis.call('DEL', KEYS[i])
	end
end
return 1
`)
