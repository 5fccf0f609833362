package recipe

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Quantity 食材數量，可為數字或自由文字（"1 1/2"、"a pinch"）
type Quantity struct {
	text    string
	value   float64
	numeric bool
}

// Amount 以數值建立數量
func Amount(v float64) Quantity {
	return Quantity{value: v, numeric: true}
}

// ParseQuantity 解析文字數量；無法辨識時數值為 0
func ParseQuantity(s string) Quantity {
	s = strings.TrimSpace(s)
	v, ok := parseAmount(s)
	return Quantity{text: s, value: v, numeric: ok}
}

// Value 數值部分
func (q Quantity) Value() float64 {
	return q.value
}

// IsNumeric 是否解析出數值
func (q Quantity) IsNumeric() bool {
	return q.numeric
}

// String 原始撰寫的形式
func (q Quantity) String() string {
	if q.text != "" {
		return q.text
	}
	if !q.numeric {
		return ""
	}
	return strconv.FormatFloat(q.value, 'f', -1, 64)
}

// MarshalJSON 有原始文字時輸出字串，否則輸出數字
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.text != "" {
		return json.Marshal(q.text)
	}
	return json.Marshal(q.value)
}

// UnmarshalJSON 接受數字、字串或 null
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = Quantity{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = ParseQuantity(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*q = Amount(v)
	return nil
}

var unicodeFractions = map[string]float64{
	"½": 0.5, "¼": 0.25, "¾": 0.75, "⅓": 1.0 / 3, "⅔": 2.0 / 3, "⅛": 0.125,
}

// parseAmount 解析 "2"、"1.5"、"1/2"、"1 1/2"、"1½"、"2 large"（取開頭數值）
func parseAmount(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	for sym, v := range unicodeFractions {
		if strings.Contains(s, sym) {
			s = strings.Replace(s, sym, " "+strconv.FormatFloat(v, 'f', -1, 64), 1)
		}
	}

	fields := strings.Fields(s)
	total := 0.0
	found := false
	for _, f := range fields {
		v, ok := parseNumberToken(f)
		if !ok {
			break
		}
		total += v
		found = true
	}
	return total, found
}

func parseNumberToken(tok string) (float64, bool) {
	tok = strings.ReplaceAll(tok, ",", ".")
	if num, den, ok := strings.Cut(tok, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
