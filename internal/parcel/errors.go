// 包 parcel：错误分级定义，所有存储层错误在数据服务边界折算为这两类之一
package parcel

import "errors"

var (
	// ErrNotFound：标识无匹配记录；提示性错误，不影响会话其余状态
	ErrNotFound = errors.New("parcel not found")
	// ErrDataUnavailable：存储或网络故障；可重试，展示为整体失败横幅
	ErrDataUnavailable = errors.New("parcel data unavailable")
)
