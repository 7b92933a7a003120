// Package report 把已解析的 SeriesRatings 渲染为纯文本报告。
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/John-Robertt/tvrate/internal/domain"
)

const separator = "-----------------------------"

// Filler 负责在报告前解析尚未填充的 SeriesRatings（通常是 *imdb.Resolver）。
type Filler interface {
	Fill(ctx context.Context, sr *domain.SeriesRatings) error
}

type Builder struct {
	Filler Filler
}

// Build 渲染报告；sr 未解析时先通过 Filler 解析。
//
// 对已解析的实例重复调用不会产生网络请求，且输出逐字节相同。
func (b Builder) Build(ctx context.Context, sr *domain.SeriesRatings) (string, error) {
	if sr == nil {
		return "", errors.New("series ratings 不能为空")
	}
	if !sr.Resolved() {
		if b.Filler == nil {
			return "", errors.New("series ratings 尚未解析，且没有可用的 Filler")
		}
		// 并发调用时可能被其他调用方抢先填充，视为成功。
		if err := b.Filler.Fill(ctx, sr); err != nil && !errors.Is(err, domain.ErrAlreadyResolved) {
			return "", err
		}
	}
	return Render(sr)
}

// Render 渲染一个已解析的实例，不做任何解析。
func Render(sr *domain.SeriesRatings) (string, error) {
	if sr == nil || !sr.Resolved() {
		return "", errors.New("series ratings 尚未解析")
	}

	mean, err := sr.Mean()
	if err != nil {
		return "", err
	}
	diff, err := sr.Difference()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(sr.Title)
	b.WriteString("\n")
	b.WriteString(separator)
	b.WriteString("\n")

	for _, idx := range sr.SeasonIndexes() {
		b.WriteString(seasonLabel(idx, sr.UnknownSlot))
		b.WriteString(":")
		season := sr.Seasons[idx]
		for i, ep := range season.Indexes() {
			r, _ := season.Rating(ep)
			if i == 0 {
				b.WriteString(" ")
			} else {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "Episode %d: %s", ep, r.String())
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Series rating: %s\n", sr.Official.String())
	fmt.Fprintf(&b, "Episode average rating: %.1f\n", mean)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Series rating is %.1f points above episode average\n", roundDiff(diff))
	return b.String(), nil
}

// seasonLabel 返回显示用的季名。未知季之后的常规季号在显示时减一，底层季号不变。
func seasonLabel(idx, unknownSlot int) string {
	if idx == domain.UnknownSeason {
		return "Season Unknown"
	}
	if unknownSlot > 0 && idx > unknownSlot {
		idx--
	}
	return fmt.Sprintf("Season %d", idx)
}

// roundDiff 四舍五入到一位小数，并消除 -0.0。
func roundDiff(d float64) float64 {
	d = math.Round(d*10) / 10
	if d == 0 {
		return 0
	}
	return d
}
