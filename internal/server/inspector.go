package server

import (
	"go.uber.org/zap"

	"github.com/eternalApril/inhale/internal/resp"
)

// Inspector logs every command it receives and answers the connection
// commands itself. Everything else is acknowledged with OK
type Inspector struct {
	Logger *zap.Logger
}

// Handle implements Handler
func (i Inspector) Handle(name string, args []resp.Value) resp.Value {
	if i.Logger != nil {
		i.Logger.Info("command",
			zap.String("name", name),
			zap.Int("args_count", len(args)),
			zap.String("args", resp.FormatString(resp.MakeArray(args))),
		)
	}

	switch name {
	case "PING":
		switch len(args) {
		case 0:
			return resp.MakeSimpleString("PONG")
		case 1:
			return resp.MakeBulkBytes(args[0].String)
		}
		return wrongArgs(name)

	case "ECHO":
		if len(args) != 1 {
			return wrongArgs(name)
		}
		return resp.MakeBulkBytes(args[0].String)

	case "COMMAND":
		return resp.MakeArray(nil)
	}

	return resp.MakeSimpleString("OK")
}

func wrongArgs(name string) resp.Value {
	return resp.MakeError("ERR wrong number of arguments for '" + name + "' command")
}
