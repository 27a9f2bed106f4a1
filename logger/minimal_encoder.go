package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGray  = "\033[90m"
	colorCyan  = "\033[36m"
	colorWarn  = "\033[33m"
	colorError = "\033[31m"
)

var bufferPool = buffer.NewPool()

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  matcher  flushed batch  batch_size=4"
type minimalEncoder struct {
	zapcore.Encoder // base encoder for With() field handling
	context         []zapcore.Field
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	ctx := make([]zapcore.Field, len(enc.context))
	copy(ctx, enc.context)
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		context: ctx,
	}
}

// AddString and AddInt64 capture fields attached with Logger.With so the
// console line shows them.
func (enc *minimalEncoder) AddString(key, value string) {
	enc.context = append(enc.context, zap.String(key, value))
}

func (enc *minimalEncoder) AddInt64(key string, value int64) {
	enc.context = append(enc.context, zap.Int64(key, value))
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	final.AppendString(colorGray)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	if level := levelString(ent.Level); level != "" {
		final.AppendString("  ")
		final.AppendString(level)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorCyan)
		final.AppendString(ent.LoggerName)
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	all := append(append([]zapcore.Field{}, enc.context...), fields...)
	if kv := formatFields(all); kv != "" {
		final.AppendString("  ")
		final.AppendString(colorGray)
		final.AppendString(kv)
		final.AppendString(colorReset)
	}

	final.AppendString("\n")
	return final, nil
}

// levelString returns a coloured tag for WARN and above; INFO and DEBUG stay quiet
func levelString(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return colorGray + "debug" + colorReset
	case zapcore.InfoLevel:
		return ""
	case zapcore.WarnLevel:
		return colorBold + colorWarn + "WARN" + colorReset
	default:
		return colorBold + colorError + level.CapitalString() + colorReset
	}
}

func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// formatFields renders key=value pairs sorted by key for stable output
func formatFields(fields []zapcore.Field) string {
	if len(fields) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(fields))
	for _, f := range fields {
		v := fieldValue(f)
		if v == "" {
			continue
		}
		pairs = append(pairs, f.Key+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, " ")
}
