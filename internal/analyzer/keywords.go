package analyzer

import "strings"

// Keyword tables carried over verbatim from the original source's
// _apply_override_rules (per §9's resolved ambiguity: these are customer
// utterances in the product's domain language and stay Chinese even though
// every enum/status value elsewhere is canonicalized to English).
var (
	salesKeywords = []string{
		"购买", "买", "下单", "推荐", "价格", "优惠", "折扣", "产品", "商品",
		"衣服", "服装", "上衣", "裤子", "裙子", "外套", "衬衫", "t恤",
	}
	stylingKeywords = []string{
		"搭配", "穿搭", "尺码", "风格", "颜色",
		"休闲", "通勤", "正式", "约会", "运动", "街头", "简约", "复古",
		"法式", "韩系", "日系", "商务", "职场", "上班", "聚会", "旅行",
	}
	orderKeywords = []string{
		"订单", "查询订单", "订单查询", "订单号", "物流", "快递", "发货", "收货", "配送",
		"退货", "退款", "售后", "退换货", "跟踪", "物流查询", "快递查询",
	}
	salesStrongKeywords = []string{
		"购买", "买", "下单", "推荐", "价格", "优惠", "折扣", "促销", "活动", "报价",
	}
	affirmativeKeywords = []string{
		"可以", "好的", "好", "行", "没问题", "是的", "嗯", "ok", "好啊", "没事", "确认",
	}
	transferToSalesKeywords = []string{
		"转销售", "转接销售", "销售智能体", "销售顾问", "找销售", "请销售帮忙",
	}
	transferToOrderKeywords = []string{
		"转订单", "转接订单", "订单智能体", "订单顾问", "找订单", "请订单帮忙", "转到订单智能体",
	}
	transferToKnowledgeKeywords = []string{
		"转知识", "转接知识", "知识智能体", "知识顾问", "找知识", "请知识帮忙", "转到知识智能体",
	}
	transferToStylingKeywords = []string{
		"转穿搭", "转接穿搭", "穿搭智能体", "穿搭顾问", "找穿搭", "请穿搭帮忙", "转到穿搭智能体",
	}
)

func containsAny(content string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(content, k) {
			return true
		}
	}
	return false
}
