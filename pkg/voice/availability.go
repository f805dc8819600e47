package voice

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/code-100-precent/TableEcho/internal/models"
)

const (
	// slotCollisionWindow 同一时段的冲突判定窗口，预订时间前后各30分钟
	slotCollisionWindow = 30 * time.Minute

	// DefaultMaxReservationsPerSlot 冲突窗口内允许的最大预订数
	// 与桌型容量无关，容量感知的排桌是后续扩展
	DefaultMaxReservationsPerSlot = 4

	// maxAlternatives 备选时段最多返回的数量
	maxAlternatives = 3

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// alternativeOffsets 备选时段的探测顺序：就近优先、正负交替
// 故意不做穷举，这是同步语音轮次里的延迟取舍
var alternativeOffsets = []time.Duration{
	time.Hour, -time.Hour,
	2 * time.Hour, -2 * time.Hour,
	3 * time.Hour, -3 * time.Hour,
}

// Availability 餐位可用性检查
type Availability struct {
	db          *gorm.DB
	openingHour int
	closingHour int
	maxPerSlot  int

	now func() time.Time
}

// NewAvailability 创建可用性检查器
func NewAvailability(db *gorm.DB, openingHour, closingHour, maxPerSlot int) *Availability {
	if maxPerSlot <= 0 {
		maxPerSlot = DefaultMaxReservationsPerSlot
	}
	return &Availability{
		db:          db,
		openingHour: openingHour,
		closingHour: closingHour,
		maxPerSlot:  maxPerSlot,
		now:         time.Now,
	}
}

// ValidateDate 校验日期格式且不在今天之前
func (a *Availability) ValidateDate(date string) error {
	parsed, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	today := a.now().Format(dateLayout)
	if parsed.Format(dateLayout) < today {
		return fmt.Errorf("date %s is in the past", date)
	}
	return nil
}

// ValidateTime 校验时间格式且落在营业时间内
func (a *Availability) ValidateTime(t string) error {
	parsed, err := time.Parse(timeLayout, t)
	if err != nil {
		return fmt.Errorf("invalid time %q, expected HH:MM", t)
	}
	minutes := parsed.Hour()*60 + parsed.Minute()
	if !a.withinBusinessHours(minutes) {
		return fmt.Errorf("time %s is outside business hours %02d:00-%02d:00",
			t, a.openingHour, a.closingHour)
	}
	return nil
}

// ValidatePartySize 校验用餐人数
func (a *Availability) ValidatePartySize(partySize, maxPartySize int) error {
	if partySize < 1 {
		return fmt.Errorf("party size must be at least 1")
	}
	if maxPartySize > 0 && partySize > maxPartySize {
		return fmt.Errorf("party size %d exceeds the maximum of %d", partySize, maxPartySize)
	}
	return nil
}

// CheckSlot 检查指定时段是否可订
// 订满时按探测顺序收集最多3个营业时间内的备选时段
func (a *Availability) CheckSlot(date, slot string) (available bool, alternatives []string, err error) {
	full, err := a.slotFull(date, slot)
	if err != nil {
		return false, nil, err
	}
	if !full {
		return true, nil, nil
	}

	base := minutesOf(slot)
	for _, offset := range alternativeOffsets {
		candidate := base + int(offset.Minutes())
		if candidate < 0 || candidate >= 24*60 {
			continue
		}
		if !a.withinBusinessHours(candidate) {
			continue
		}
		candidateSlot := formatMinutes(candidate)
		candidateFull, err := a.slotFull(date, candidateSlot)
		if err != nil {
			return false, nil, err
		}
		if !candidateFull {
			alternatives = append(alternatives, candidateSlot)
			if len(alternatives) == maxAlternatives {
				break
			}
		}
	}
	return false, alternatives, nil
}

// slotFull 统计冲突窗口内的有效预订数是否达到上限
func (a *Availability) slotFull(date, slot string) (bool, error) {
	base := minutesOf(slot)
	window := int(slotCollisionWindow.Minutes())
	from := formatMinutes(clampMinutes(base - window))
	to := formatMinutes(clampMinutes(base + window))

	count, err := models.CountReservationsInWindow(a.db, date, from, to)
	if err != nil {
		return false, fmt.Errorf("availability lookup failed: %w", err)
	}
	return count >= int64(a.maxPerSlot), nil
}

func (a *Availability) withinBusinessHours(minutes int) bool {
	return minutes >= a.openingHour*60 && minutes < a.closingHour*60
}

// minutesOf 将零填充的 HH:MM 转换为当日分钟数，调用前必须已通过格式校验
func minutesOf(slot string) int {
	parsed, err := time.Parse(timeLayout, slot)
	if err != nil {
		return 0
	}
	return parsed.Hour()*60 + parsed.Minute()
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func clampMinutes(minutes int) int {
	if minutes < 0 {
		return 0
	}
	if minutes > 24*60-1 {
		return 24*60 - 1
	}
	return minutes
}
