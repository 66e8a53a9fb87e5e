package server

// 场地标点预设：以 (400,300) 为圆心、半径 200 的八个点位
// 选择预设时服务端直接展开为完整标点布局，custom 不改动现有标点

var (
	ptN  = Point{X: 400, Y: 100}
	ptNE = Point{X: 541, Y: 159}
	ptE  = Point{X: 600, Y: 300}
	ptSE = Point{X: 541, Y: 441}
	ptS  = Point{X: 400, Y: 500}
	ptSW = Point{X: 259, Y: 441}
	ptW  = Point{X: 200, Y: 300}
	ptNW = Point{X: 259, Y: 159}
)

// waymarkPresets 预设名 → 完整八点布局
var waymarkPresets = map[string]map[string]Point{
	// 字母在正点，数字在斜点
	"waymarks-1": {
		"A": ptN, "B": ptE, "C": ptS, "D": ptW,
		"1": ptNE, "2": ptSE, "3": ptSW, "4": ptNW,
	},
	// 数字在正点，字母在斜点
	"waymarks-2": {
		"1": ptN, "2": ptE, "3": ptS, "4": ptW,
		"A": ptNE, "B": ptSE, "C": ptSW, "D": ptNW,
	},
	// 内缩方形：字母占角，数字占边中点
	"waymarks-3": {
		"A": {X: 260, Y: 160}, "B": {X: 540, Y: 160},
		"C": {X: 540, Y: 440}, "D": {X: 260, Y: 440},
		"1": {X: 400, Y: 160}, "2": {X: 540, Y: 300},
		"3": {X: 400, Y: 440}, "4": {X: 260, Y: 300},
	},
	// 钟面交错：A 1 B 2 C 3 D 4 顺时针排布
	"waymarks-4": {
		"A": ptN, "1": ptNE, "B": ptE, "2": ptSE,
		"C": ptS, "3": ptSW, "D": ptW, "4": ptNW,
	},
}

// expandWaymarkPreset 取预设布局的副本；未知预设或 custom 返回 nil
func expandWaymarkPreset(name string) map[string]Point {
	layout, ok := waymarkPresets[name]
	if !ok {
		return nil
	}
	out := make(map[string]Point, len(layout))
	for slot, pt := range layout {
		out[slot] = pt
	}
	return out
}
