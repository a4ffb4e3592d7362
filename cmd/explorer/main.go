// 终端探索客户端：拉取摘要集，在终端里按过滤条件浏览地块列表，
// 选中后懒加载详情并打印站点报告。悬停/选中/取代语义由 session 状态机承载。
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"apollo/internal/api"
	"apollo/internal/filter"
	"apollo/internal/parcel"
	"apollo/internal/render"
	"apollo/internal/report"
	"apollo/internal/session"

	"golang.org/x/term"
)

// httpFetcher：经由 HTTP API 的详情拉取实现
type httpFetcher struct {
	base   string
	client *http.Client
}

func (f *httpFetcher) FetchDetail(ctx context.Context, id parcel.ID) (*parcel.Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.base+"/parcels?id="+id.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parcel.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, parcel.ErrNotFound
	default:
		return nil, fmt.Errorf("%w: http %d", parcel.ErrDataUnavailable, resp.StatusCode)
	}
	var d parcel.Detail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", parcel.ErrDataUnavailable, err)
	}
	return &d, nil
}

func fetchSummaries(base string, client *http.Client) ([]parcel.Summary, error) {
	resp, err := client.Get(base + "/parcels")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parcel.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http %d", parcel.ErrDataUnavailable, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parcel.ErrDataUnavailable, err)
	}
	return api.DecodeSummary(b)
}

func main() {
	var (
		base       = flag.String("base", "http://localhost:8080/api", "API 基础地址")
		minAcres   = flag.Float64("min-acres", 0, "最小面积（英亩）")
		gridViable = flag.Bool("grid-viable", false, "仅电网可行")
		lowWetland = flag.Bool("low-wetland", false, "仅低湿地影响")
	)
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}
	sums, err := fetchSummaries(*base, client)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load parcels:", err)
		os.Exit(1)
	}
	f := filter.Filters{MinAcreage: *minAcres, GridViableOnly: *gridViable, LowWetlandOnly: *lowWetland}

	// 状态快照经通道送回主循环，键盘与网络完成事件在同一处消费
	updates := make(chan session.State, 8)
	sess := session.New(&httpFetcher{base: *base, client: client}, func(st session.State) {
		select {
		case updates <- st:
		default:
		}
	})
	defer sess.End()

	interactive(sums, f, sess, updates)
}

// interactive：原始模式下的列表浏览
// 上下键移动（即悬停变更），Enter 选中并展示报告，Esc/q 退出
func interactive(sums []parcel.Summary, f filter.Filters, sess *session.Session, updates <-chan session.State) {
	frame := render.Build(sums, f, sess.State())
	if len(frame.Rows) == 0 {
		fmt.Println("no parcels match the current filters")
		return
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Println("(interactive mode not supported on this terminal)")
		return
	}
	defer term.Restore(fd, oldState)

	reader := bufio.NewReader(os.Stdin)
	cursor := 0
	sess.Hover(frame.Rows[cursor].ID)

	redraw := func() {
		frame = render.Build(sums, f, sess.State())
		fmt.Print("\033[H\033[2J")
		for i, row := range frame.Rows {
			prefix := "  "
			if i == cursor {
				prefix = "> "
			}
			fmt.Printf("%s%3d%%  %-9s %6.1f ac  %s\r\n", prefix, row.ScorePct, row.Rank, row.LotSize, row.Address)
		}
		fmt.Print("(↑/↓ move, Enter select, Esc quit)\r\n")
	}
	redraw()

	move := func(delta int) {
		next := cursor + delta
		if next < 0 || next >= len(frame.Rows) {
			return
		}
		cursor = next
		sess.Hover(frame.Rows[cursor].ID)
		redraw()
	}

	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch b1 {
		case 27: // ESC 或方向键序列
			if reader.Buffered() == 0 {
				fmt.Print("\r\n")
				return
			}
			b2, _ := reader.ReadByte()
			if b2 != '[' || reader.Buffered() == 0 {
				continue
			}
			b3, _ := reader.ReadByte()
			switch b3 {
			case 'A':
				move(-1)
			case 'B':
				move(1)
			}
		case 'q':
			fmt.Print("\r\n")
			return
		case '\r', '\n':
			sess.Click(frame.Rows[cursor].ID)
			st := waitResolved(updates)
			term.Restore(fd, oldState)
			fmt.Println()
			if st.Err != nil {
				// 拉取失败内联提示，不影响摘要集与悬停状态
				fmt.Println("detail unavailable:", st.Err)
			} else if st.Detail != nil {
				fmt.Println(report.Render(st.Detail, time.Now()))
			}
			fmt.Print("(press Enter to return)")
			_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')
			sess.CloseSelection()
			if _, err := term.MakeRaw(fd); err != nil {
				return
			}
			reader = bufio.NewReader(os.Stdin)
			redraw()
		}
	}
}

// waitResolved：消费状态快照直到本次选中落定
func waitResolved(updates <-chan session.State) session.State {
	for {
		select {
		case st := <-updates:
			if st.Phase == session.PhaseSelected || st.Phase == session.PhaseSelectedError {
				return st
			}
		case <-time.After(30 * time.Second):
			return session.State{Err: errors.New("timed out waiting for detail")}
		}
	}
}
