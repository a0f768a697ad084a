package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"image"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/affiche/poster"
)

// DefaultFetchTimeout 是远程图片抓取的缺省超时。慢速或不可达的图床
// 只拖慢所在图层，不允许拖垮整次导出。
const DefaultFetchTimeout = 12 * time.Second

// Fetcher 负责把图层的 src（data URI 或 http(s) URL）变成解码后的像素。
type Fetcher struct {
	Client *http.Client
}

// NewFetcher 创建带超时的抓取器；timeout<=0 时使用 DefaultFetchTimeout。
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}}
}

// Cover 加载 src 并以 cover 策略（保持宽高比、居中裁切）铺满 width×height。
// 返回的图像永远可用：加载/解码失败时返回中灰占位块，来源形式不受支持时
// 返回浅灰占位块，err 仅说明降级原因。单个坏图不会中断导出。
func (f *Fetcher) Cover(ctx context.Context, src string, width, height int) (*image.NRGBA, error) {
	img, err := f.load(ctx, src)
	if err != nil {
		if isUnsupportedSource(src) {
			return poster.Solid(width, height, poster.PlaceholderLight), err
		}
		return poster.Solid(width, height, poster.PlaceholderGray), err
	}
	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos), nil
}

func (f *Fetcher) load(ctx context.Context, src string) (image.Image, error) {
	switch {
	case strings.HasPrefix(src, "data:image"):
		return decodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return f.download(ctx, src)
	case src == "":
		return nil, fmt.Errorf("图片 src 为空")
	default:
		return nil, fmt.Errorf("不支持的图片来源: %.50s", src)
	}
}

func isUnsupportedSource(src string) bool {
	return src != "" &&
		!strings.HasPrefix(src, "data:image") &&
		!strings.HasPrefix(src, "http://") &&
		!strings.HasPrefix(src, "https://")
}

func decodeDataURI(src string) (image.Image, error) {
	_, payload, ok := strings.Cut(src, ",")
	if !ok {
		return nil, fmt.Errorf("data URI 缺少逗号分隔的载荷")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// 允许无填充的 base64 载荷
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("base64 解码失败: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码内嵌图片失败: %w", err)
	}
	return img, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载图片失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("下载图片失败: %s", resp.Status)
	}
	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}
	return img, nil
}
