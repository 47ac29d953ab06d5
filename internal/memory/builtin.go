package memory

// builtinPhrases is the shipped vocabulary for Unreal Engine editor tooling,
// translated to Simplified Chinese. These entries are never overwritten or
// deleted and always win over learned ones.
var builtinPhrases = map[string]string{
	// XTools categories
	"XTools|Random":    "XTools|随机",
	"XTools|Sort":      "XTools|排序",
	"XTools|Array":     "XTools|数组",
	"XTools|Collision": "XTools|碰撞",
	"XTools|Math":      "XTools|数学",
	"XTools|String":    "XTools|字符串",
	"XTools|Transform": "XTools|Transform",
	"XTools|Utilities": "XTools|工具",
	"XTools|Debug":     "XTools|调试",

	"Asset Naming":                 "资产命名",
	"Asset Naming|Validation":      "资产命名|验证",
	"Asset Naming|Exclusion Rules": "资产命名|排除规则",
	"Asset Naming|Prefix":          "资产命名|前缀",
	"Asset Naming|Suffix":          "资产命名|后缀",

	// common terms
	"Connection":         "连接",
	"Connection Mode":    "连接模式",
	"Ascending":          "升序",
	"Descending":         "降序",
	"Input Array":        "输入数组",
	"Output Array":       "输出数组",
	"Return Value":       "返回值",
	"Start Index":        "起始索引",
	"End Index":          "结束索引",
	"Max Distance":       "最大距离",
	"Min Distance":       "最小距离",
	"Random Stream":      "随机流送",
	"Reference Location": "参考位置",
	"Sorted Actors":      "排序后的Actors",
	"Original Indices":   "原始索引",
	"Static Mesh":        "静态网格体",
	"Skeletal Mesh":      "骨骼网格体",
	"Is Valid":           "是否有效",
	"In Place":           "原地",
	"By Value":           "按值",
	"By Reference":       "按引用",

	"Unique":         "去重",
	"Slice":          "截取",
	"Primitives":     "基础类型",
	"Constant Speed": "匀速",
	"Stream":         "流送",
	"Asset":          "资产",
	"Index":          "索引",
	"Indices":        "索引",
	"Value":          "值",
	"Weight":         "权重",
	"Probability":    "概率",
	"Distance":       "距离",
	"Speed":          "速度",
	"Direction":      "方向",
	"Location":       "位置",
	"Rotation":       "旋转",
	"Scale":          "缩放",
	"True":           "True",
	"False":          "False",
	"None":           "无",
	"Default":        "默认",
	"Custom":         "自定义",
}

// Builtin returns a copy of the built-in vocabulary.
func Builtin() map[string]string {
	out := make(map[string]string, len(builtinPhrases))
	for k, v := range builtinPhrases {
		out[k] = v
	}
	return out
}
