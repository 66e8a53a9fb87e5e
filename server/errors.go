package server

import "errors"

// 加入房间的用户可见错误，文本原样通过 joinError 下发
var (
	ErrRoomNotFound = errors.New("Room not found")
	ErrNameTaken    = errors.New("Name is already taken")
	ErrColorTaken   = errors.New("Color is already taken")
)
