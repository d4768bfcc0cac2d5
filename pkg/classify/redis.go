package classify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CommandType classifies a Redis command by its effect.
type CommandType string

const (
	CommandRead      CommandType = "read"
	CommandWrite     CommandType = "write"
	CommandDelete    CommandType = "delete"
	CommandIncrement CommandType = "increment"
	CommandExpiry    CommandType = "expiry"
	CommandAdmin     CommandType = "admin"
	CommandOther     CommandType = "other"
)

var redisCommandTypes = map[string]CommandType{
	"GET": CommandRead, "MGET": CommandRead, "HGET": CommandRead,
	"HGETALL": CommandRead, "LRANGE": CommandRead, "SMEMBERS": CommandRead,
	"ZRANGE": CommandRead,

	"SET": CommandWrite, "MSET": CommandWrite, "HSET": CommandWrite,
	"LPUSH": CommandWrite, "RPUSH": CommandWrite, "SADD": CommandWrite,
	"ZADD": CommandWrite,

	"DEL": CommandDelete, "HDEL": CommandDelete, "LPOP": CommandDelete,
	"RPOP": CommandDelete, "SREM": CommandDelete, "ZREM": CommandDelete,

	"INCR": CommandIncrement, "DECR": CommandIncrement,
	"INCRBY": CommandIncrement, "DECRBY": CommandIncrement,
	"HINCRBY": CommandIncrement,

	"EXPIRE": CommandExpiry, "TTL": CommandExpiry, "PERSIST": CommandExpiry,

	"PING": CommandAdmin, "ECHO": CommandAdmin, "INFO": CommandAdmin,
}

// ClassifyCommand maps a Redis command name to its CommandType. Unknown
// commands classify as other.
func ClassifyCommand(command string) CommandType {
	if t, ok := redisCommandTypes[strings.ToUpper(command)]; ok {
		return t
	}
	return CommandOther
}

// IsReadOnly reports whether the command cannot modify keyspace state.
func IsReadOnly(command string) bool {
	switch ClassifyCommand(command) {
	case CommandRead, CommandAdmin:
		return true
	default:
		return false
	}
}

// RedisCommand is a decoded RESP command.
type RedisCommand struct {
	Name string
	Args []string
}

// ErrNotRESP reports input that does not start a RESP array or bulk string.
var ErrNotRESP = errors.New("not a RESP payload")

// ParseRESP decodes a RESP-encoded command. Only the array and bulk-string
// framings used by client commands are handled.
func ParseRESP(data []byte) (*RedisCommand, error) {
	if len(data) == 0 {
		return nil, ErrNotRESP
	}

	switch data[0] {
	case '*':
		return parseRESPArray(data)
	case '$':
		lines := splitRESPLines(data)
		if len(lines) < 2 {
			return nil, ErrNotRESP
		}
		return &RedisCommand{Name: strings.ToUpper(string(lines[1]))}, nil
	default:
		return nil, ErrNotRESP
	}
}

func parseRESPArray(data []byte) (*RedisCommand, error) {
	lines := splitRESPLines(data)

	// lines alternate $<len> headers and payloads; headers are skipped
	var parts []string
	for i := 1; i+1 < len(lines); i += 2 {
		if len(lines[i+1]) == 0 {
			break
		}
		parts = append(parts, string(lines[i+1]))
	}
	if len(parts) == 0 {
		return nil, ErrNotRESP
	}

	return &RedisCommand{Name: strings.ToUpper(parts[0]), Args: parts[1:]}, nil
}

func splitRESPLines(data []byte) [][]byte {
	lines := bytes.Split(data, []byte{'\n'})
	for i, line := range lines {
		lines[i] = bytes.TrimSuffix(line, []byte{'\r'})
	}
	return lines
}

type redisDescriber struct{}

func (redisDescriber) Describe(w io.Writer, input string) error {
	name := ""
	if fields := strings.Fields(input); len(fields) > 0 {
		name = fields[0]
	}

	fmt.Fprintf(w, "Redis Command Analysis:\n")
	fmt.Fprintf(w, "  Command: %s\n", name)
	fmt.Fprintf(w, "  Type: %s\n", ClassifyCommand(name))
	fmt.Fprintf(w, "  Read-only: %t\n", IsReadOnly(name))
	return nil
}
