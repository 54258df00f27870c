// Package timeslot は1日4枠のスロット（morning / noon / afternoon / night）と、
// UTC+14を基準とした日付計算を提供する。
//
// スロットドキュメントはユーザーが体感するローカル日付をキーに持つ。
// UTC+14は地球上で最も早いタイムゾーンであり、どのスロット開始時刻にも
// 最初に到達するため、UTC+14での「今日」を基準にすれば他のすべての
// タイムゾーンから同じスロットIDを参照できる。
package timeslot

import (
	"fmt"
	"strings"
	"time"
)

// Name はスロット名を表す。
type Name string

const (
	// Morning は朝のスロット（UTC+14で05:00開始）。
	Morning Name = "morning"
	// Noon は昼のスロット（UTC+14で12:00開始）。
	Noon Name = "noon"
	// Afternoon は夕方のスロット（UTC+14で17:00開始）。
	Afternoon Name = "afternoon"
	// Night は夜のスロット（UTC+14で22:00開始）。
	Night Name = "night"
)

// ReferenceOffsetHours は日付計算の基準となるUTCオフセット（時間）。
const ReferenceOffsetHours = 14

// Today は現在時刻にoffsetHours時間を加えた時点の暦日を"YYYY-MM-DD"形式で返す。
func Today(offsetHours int) string {
	return TodayAt(time.Now(), offsetHours)
}

// TodayAt は指定時刻にoffsetHours時間を加えた時点の暦日を"YYYY-MM-DD"形式で返す。
// ローカルタイムゾーンに依存しないよう、UTCに変換してからオフセットを加算する。
func TodayAt(now time.Time, offsetHours int) string {
	shifted := now.UTC().Add(time.Duration(offsetHours) * time.Hour)
	return shifted.Format("2006-01-02")
}

// ID は日付とスロット名からスロットID（"{date}_{slotName}"）を組み立てる。
func ID(date string, name Name) string {
	return fmt.Sprintf("%s_%s", date, name)
}

// ParseID はスロットIDを日付とスロット名に分解する。
// 形式が不正な場合はエラーを返す。
func ParseID(id string) (string, Name, error) {
	i := strings.LastIndex(id, "_")
	if i <= 0 || i == len(id)-1 {
		return "", "", fmt.Errorf("スロットIDの形式が不正: %s", id)
	}
	return id[:i], Name(id[i+1:]), nil
}

// Definition はスロット1枠の定義。
type Definition struct {
	// Name はスロット名。
	Name Name
	// Label は通知などに使う表示ラベル（例: "Morning (5 am)"）。
	Label string
	// LocalTime はUTC+14でのスロット開始時刻の表示文字列（例: "5:00 am"）。
	LocalTime string
	// FireHourUTC はスロット開始通知を発火するUTCの時（0-23）。
	FireHourUTC int
}

// Schedule は全スロットの定義テーブル。
// UTC+14のスロット開始時刻をUTCに換算した発火時刻を持つ。
//
//	Morning   05:00 UTC+14 = 15:00 UTC
//	Noon      12:00 UTC+14 = 22:00 UTC
//	Afternoon 17:00 UTC+14 = 03:00 UTC
//	Night     22:00 UTC+14 = 08:00 UTC
var Schedule = []Definition{
	{Name: Morning, Label: "Morning (5 am)", LocalTime: "5:00 am", FireHourUTC: 15},
	{Name: Noon, Label: "Noon (12 pm)", LocalTime: "12:00 pm", FireHourUTC: 22},
	{Name: Afternoon, Label: "Afternoon (5 pm)", LocalTime: "5:00 pm", FireHourUTC: 3},
	{Name: Night, Label: "Night (10 pm)", LocalTime: "10:00 pm", FireHourUTC: 8},
}

// Lookup はスロット名に対応する定義を返す。
func Lookup(name Name) (Definition, bool) {
	for _, def := range Schedule {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// FormatDate は"YYYY-MM-DD"形式の日付を"Sunday, June 1"のような表示形式に変換する。
// 解析できない場合は入力をそのまま返す。
func FormatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2")
}
