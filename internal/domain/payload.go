package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload 一行上传数据的原始内容（列名 -> 值，保持 Excel 列顺序）
// 值为 nil 表示单元格为空。原始数据是事实来源，不做有损转换；
// io_no 等兼容字段只是从这里派生出来的影子字段
type Payload struct {
	keys   []string
	values map[string]*string
}

func NewPayload() *Payload {
	return &Payload{values: map[string]*string{}}
}

// Set 设置列值（nil 表示空单元格）；重复 Set 不改变列顺序
func (p *Payload) Set(key string, value *string) {
	if p.values == nil {
		p.values = map[string]*string{}
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// SetString 设置非空字符串值的便捷方法
func (p *Payload) SetString(key, value string) {
	v := value
	p.Set(key, &v)
}

// Get 返回列值；列不存在或为空时返回 ""
func (p *Payload) Get(key string) string {
	if p == nil || p.values == nil {
		return ""
	}
	if v, ok := p.values[key]; ok && v != nil {
		return *v
	}
	return ""
}

// Has 判断列是否存在（值可以为空）
func (p *Payload) Has(key string) bool {
	if p == nil || p.values == nil {
		return false
	}
	_, ok := p.values[key]
	return ok
}

// Keys 按原始列顺序返回所有列名
func (p *Payload) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// MarshalJSON 按列顺序输出 JSON object
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		if v := p.values[k]; v == nil {
			buf.WriteString("null")
		} else {
			vb, err := json.Marshal(*v)
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 解析 JSON object 并保留键出现顺序
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("payload: expected JSON object")
	}

	p.keys = nil
	p.values = map[string]*string{}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("payload: expected string key")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		var value *string
		if !bytes.Equal(raw, []byte("null")) {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				value = &s
			} else {
				// 非字符串值（历史数据可能有数字）按原文保留
				s = string(raw)
				value = &s
			}
		}
		p.Set(key, value)
	}

	// 消费结尾的 '}'
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// ParsePayload 从存储的 raw_data JSON 还原 Payload
func ParsePayload(rawData string) (*Payload, error) {
	p := NewPayload()
	if rawData == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(rawData), p); err != nil {
		return nil, fmt.Errorf("parse raw_data: %w", err)
	}
	return p, nil
}
